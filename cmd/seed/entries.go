package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/bulkimport"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/utils"
)

func newEntriesCmd() *cobra.Command {
	var (
		orgID string
		days  int
	)

	cmd := &cobra.Command{
		Use:   "entries",
		Short: "为组织内每个在职用户生成最近若干个工作日的工时记录",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				return errors.New("请输入合法的天数")
			}
			organizationID, err := uuid.Parse(orgID)
			if err != nil {
				return fmt.Errorf("组织 ID 不合法: %w", err)
			}

			cfg, repo, cleanup, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			users, err := repo.GetUsersByOrganization(cmd.Context(), organizationID)
			if err != nil {
				return fmt.Errorf("无法获取用户: %w", err)
			}
			activityTypes, err := repo.GetActiveCategoryCodes(cmd.Context(), organizationID)
			if err != nil {
				return fmt.Errorf("无法获取活动分类: %w", err)
			}
			if len(activityTypes) == 0 {
				activityTypes = domain.DefaultActivityTypes
			}

			workdays := utils.RecentWorkdays(time.Now(), days)
			entries := make([]domain.TimesheetEntry, 0)
			for _, user := range users {
				if !user.IsActive {
					continue
				}
				for _, day := range workdays {
					entries = append(entries, utils.GenerateRandomDayEntries(user.ID, day, activityTypes)...)
				}
			}

			slog.Info("已生成随机记录", "users", len(users), "workdays", len(workdays), "entries", len(entries))

			committer := bulkimport.NewCommitter(repo, bulkimport.WithBatchSize(cfg.BulkImport.BatchSize))
			result := committer.Commit(cmd.Context(), entries)
			if result.FailedCount > 0 {
				return fmt.Errorf("%d 条记录写入失败", result.FailedCount)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&orgID, "org", "", "组织 ID")
	cmd.Flags().IntVar(&days, "days", 10, "生成最近多少个工作日的数据")
	_ = cmd.MarkFlagRequired("org")

	return cmd
}
