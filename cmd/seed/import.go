package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/bulkimport"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/timesheet"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/utils"
)

func newImportCmd() *cobra.Command {
	var (
		orgID  string
		file   string
		status string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "以管理员模式导入 CSV 文件中的工时记录",
		Long:  "CSV 文件的第一行为表头，列名与批量导入接口一致（email, entry_date, start_time, end_time, activity_type, department_code ...）",
		RunE: func(cmd *cobra.Command, args []string) error {
			organizationID, err := uuid.Parse(orgID)
			if err != nil {
				return fmt.Errorf("组织 ID 不合法: %w", err)
			}

			cfg, repo, cleanup, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			limits := bulkimport.Limits{MaxRows: cfg.BulkImport.MaxRows, MaxFileSize: cfg.BulkImport.MaxFileSize}
			rows, size, err := loadRows(file, limits)
			if err != nil {
				return err
			}

			users, err := repo.GetUsersByOrganization(cmd.Context(), organizationID)
			if err != nil {
				return err
			}
			departments, err := repo.GetDepartmentsByOrganization(cmd.Context(), organizationID)
			if err != nil {
				return err
			}
			programs, err := repo.GetProgramsByOrganization(cmd.Context(), organizationID)
			if err != nil {
				return err
			}
			categories, err := repo.GetActiveCategoryCodes(cmd.Context(), organizationID)
			if err != nil {
				return err
			}

			refs := bulkimport.NewReferences(utils.Values(users), utils.Values(departments), utils.Values(programs))
			if from, to, ok := bulkimport.DateRange(rows); ok {
				ids := make([]uuid.UUID, 0, len(users))
				for _, u := range users {
					ids = append(ids, u.ID)
				}
				if refs.Existing, err = repo.GetEntriesByUsers(cmd.Context(), ids, from, to); err != nil {
					return err
				}
				if refs.LeaveDays, err = repo.GetLeaveDaysByUsers(cmd.Context(), ids, from, to); err != nil {
					return err
				}
			}

			actor := bulkimport.Actor{
				Mode:      bulkimport.ModeAdmin,
				Status:    domain.EntryStatus(status),
				Validator: timesheet.NewValidator(timesheet.WithCategories(categories)),
			}
			result, err := bulkimport.Reconcile(bulkimport.Batch{Rows: rows, FileSize: size}, refs, actor, limits)
			if err != nil {
				return err
			}

			for _, rejected := range result.Rejected {
				slog.Warn("行被拒绝", "row", rejected.Row.Number, "errors", rejected.Errors)
			}

			committer := bulkimport.NewCommitter(
				repo,
				bulkimport.WithBatchSize(cfg.BulkImport.BatchSize),
				bulkimport.WithRateLimit(cfg.BulkImport.BatchesPerSecond),
			)
			commit := committer.Commit(cmd.Context(), result.Admitted)
			slog.Info("导入完成",
				"rows", len(rows),
				"rejected", len(result.Rejected),
				"success", commit.SuccessCount,
				"failed", commit.FailedCount,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&orgID, "org", "", "组织 ID")
	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV 文件路径")
	cmd.Flags().StringVar(&status, "status", string(domain.EntryStatusDraft), "导入记录的初始状态（draft 或 submitted）")
	_ = cmd.MarkFlagRequired("org")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// loadRows 先检查文件大小再解析，超出限制时不读取任何一行
func loadRows(path string, limits bulkimport.Limits) ([]domain.BulkImportRow, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("无法打开文件: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, 0, err
	}
	if err := limits.Check(0, info.Size()); err != nil {
		return nil, 0, err
	}

	rows, err := readRows(f)
	if err != nil {
		return nil, 0, fmt.Errorf("无法解析 CSV: %w", err)
	}
	if err := limits.Check(len(rows), info.Size()); err != nil {
		return nil, 0, err
	}

	return rows, info.Size(), nil
}

// readRows 把 CSV 转换为以表头为键的行，空行会被跳过
func readRows(r io.Reader) ([]domain.BulkImportRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("文件为空")
		}
		return nil, err
	}

	rows := make([]domain.BulkImportRow, 0)
	for number := 1; ; number++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		fields := make(map[string]string, len(header))
		empty := true
		for i, name := range header {
			if i < len(record) {
				fields[name] = record[i]
				if record[i] != "" {
					empty = false
				}
			}
		}
		if empty {
			continue
		}
		rows = append(rows, domain.BulkImportRow{Number: number, Fields: fields})
	}

	return rows, nil
}
