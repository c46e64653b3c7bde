package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/domain"
)

func newOrgCmd() *cobra.Command {
	var (
		name        string
		departments []string
		dailyTarget int
		windowDays  int
	)

	cmd := &cobra.Command{
		Use:   "org",
		Short: "创建组织及其部门",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, repo, cleanup, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			org := &domain.Organization{
				Name: name,
				Settings: domain.OrganizationSettings{
					DailyTargetMinutes:   dailyTarget,
					SubmissionWindowDays: windowDays,
					TimeFormat:           domain.TimeFormat24h,
				},
			}
			if err := repo.CreateOrganization(cmd.Context(), org); err != nil {
				return fmt.Errorf("无法创建组织: %w", err)
			}
			slog.Info("创建组织成功", "id", org.ID, "name", org.Name)

			for _, code := range departments {
				code = strings.ToUpper(strings.TrimSpace(code))
				if code == "" {
					continue
				}
				d := &domain.Department{OrganizationID: org.ID, Code: code, Name: code}
				if err := repo.CreateDepartment(cmd.Context(), d); err != nil {
					slog.Error("无法创建部门", "code", code, "error", err)
					continue
				}
				slog.Info("创建部门成功", "id", d.ID, "code", d.Code)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "演示组织", "组织名称")
	cmd.Flags().StringSliceVar(&departments, "departments", []string{"CS", "EE", "MATH"}, "部门代码列表")
	cmd.Flags().IntVar(&dailyTarget, "daily-target", 480, "每日目标工时（分钟）")
	cmd.Flags().IntVar(&windowDays, "window-days", 30, "可补填的天数")

	return cmd
}
