package main

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/utils"
)

func newUsersCmd() *cobra.Command {
	var (
		orgID string
		n     int
	)

	cmd := &cobra.Command{
		Use:   "users",
		Short: "插入随机用户，并随机分配到组织的部门中",
		RunE: func(cmd *cobra.Command, args []string) error {
			if n <= 0 {
				return errors.New("请输入合法的用户数量")
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

			departments, err := repo.GetDepartmentsByOrganization(cmd.Context(), organizationID)
			if err != nil {
				return fmt.Errorf("无法获取部门: %w", err)
			}

			cnt := 0
			for i := 0; i < n; i++ {
				var departmentID *uuid.UUID
				if len(departments) > 0 {
					departmentID = &departments[rand.Intn(len(departments))].ID
				}

				user := utils.GenerateRandomUser(organizationID, departmentID, cfg.Seed.EmailDomain)
				if err := repo.CreateUser(cmd.Context(), user); err != nil {
					slog.Error("无法插入用户", "email", user.Email, "error", err)
					continue
				}
				cnt++
			}

			slog.Info("插入用户成功", "count", cnt)
			return nil
		},
	}

	cmd.Flags().StringVar(&orgID, "org", "", "组织 ID")
	cmd.Flags().IntVarP(&n, "count", "n", 5, "要插入的用户数量")
	_ = cmd.MarkFlagRequired("org")

	return cmd
}
