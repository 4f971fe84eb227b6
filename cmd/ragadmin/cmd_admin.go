package main

import (
	"strconv"

	"github.com/jrsteele09/go-rag-admin/tenants"
	"github.com/jrsteele09/go-rag-admin/users"
	"github.com/spf13/cobra"
)

func companiesCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "companies",
		Short: "Manage companies (super-admin)",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List companies",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.requireRole(cmd.Context(), users.Role.CanManageTenants, "companies"); err != nil {
				return err
			}
			companies, err := c.app.companies.List(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(companies))
			for _, co := range companies {
				rows = append(rows, []string{strconv.Itoa(co.ID), co.Name, co.TenantCode, orDash(co.SlugURL)})
			}
			printTable(cmd.OutOrStdout(), []string{"ID", "NAME", "TENANT", "SLUG"}, rows)
			return nil
		},
	}

	var name, tenantCode, slug string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a company",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.requireRole(cmd.Context(), users.Role.CanManageTenants, "companies"); err != nil {
				return err
			}
			company, err := c.app.companies.Create(cmd.Context(), tenants.NewCreateCompanyRequest(name, tenantCode, slug))
			if err != nil {
				return err
			}
			successColor.Fprintf(cmd.OutOrStdout(), "Created company %s (%s) with id %d\n", company.Name, company.TenantCode, company.ID)
			return nil
		},
	}
	create.Flags().StringVar(&name, "name", "", "Company name")
	create.Flags().StringVar(&tenantCode, "tenant", "", "Tenant code")
	create.Flags().StringVar(&slug, "slug", "", "Slug URL, defaults to the tenant code")

	var adminTenant, displayName, userCode string
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Create the administrator of a company",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.requireRole(cmd.Context(), users.Role.CanManageTenants, "companies"); err != nil {
				return err
			}
			created, err := c.app.companies.CreateAdmin(cmd.Context(), tenants.CreateAdminRequest{
				TenantCode:  adminTenant,
				DisplayName: displayName,
				UserCode:    userCode,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			successColor.Fprintf(out, "Created admin %s for %s\n", created.UserCode, adminTenant)
			printField(out, "API key", created.APIKey)
			warnColor.Fprintln(out, "  The API key is shown only once.")
			return nil
		},
	}
	admin.Flags().StringVar(&adminTenant, "tenant", "", "Tenant code of the company")
	admin.Flags().StringVar(&displayName, "name", "", "Display name")
	admin.Flags().StringVar(&userCode, "user-code", "", "User code, must start with the tenant code")

	cmd.AddCommand(list, create, admin)
	return cmd
}

func usersCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users of your tenant (admin)",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.requireRole(cmd.Context(), users.Role.CanManageUsers, "users"); err != nil {
				return err
			}
			list, err := c.app.users.List(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(list))
			for _, u := range list {
				rows = append(rows, []string{strconv.Itoa(u.ID), u.DisplayName, u.UserCode, string(u.Role)})
			}
			printTable(cmd.OutOrStdout(), []string{"ID", "NAME", "USER CODE", "ROLE"}, rows)
			return nil
		},
	}

	var req users.CreateUserRequest
	var role string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.requireRole(cmd.Context(), users.Role.CanManageUsers, "users"); err != nil {
				return err
			}
			req.Role = users.Role(role)
			created, err := c.app.users.Create(cmd.Context(), req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			successColor.Fprintf(out, "Created %s %s with id %d\n", created.Role, created.UserCode, created.ID)
			if created.APIKey != "" {
				printField(out, "API key", created.APIKey)
			}
			return nil
		},
	}
	create.Flags().StringVar(&req.TenantCode, "tenant", "", "Tenant code")
	create.Flags().StringVar(&req.DisplayName, "name", "", "Display name")
	create.Flags().StringVar(&req.UserCode, "user-code", "", "User code")
	create.Flags().StringVar(&role, "role", string(users.RoleUser), "Role: admin or user")
	create.Flags().StringVar(&req.Email, "email", "", "Email address")
	create.Flags().StringVar(&req.Address, "address", "", "Postal address")
	create.Flags().StringVar(&req.ContactNumber, "phone", "", "Contact number")
	create.Flags().StringVar(&req.Password, "password", "", "Initial password")

	cmd.AddCommand(list, create)
	return cmd
}
