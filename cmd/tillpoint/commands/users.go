package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/marshallshelly/tillpoint/cmd/tillpoint/output"
	"github.com/marshallshelly/tillpoint/pkg/store"
	"github.com/spf13/cobra"
)

var (
	// User flags
	userName   string
	userEmail  string
	userActive string
)

// usersCmd represents the users command
var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage users",
	Long: `Manage the users who place orders.

Subcommands:
  list    - List all users
  add     - Add a new user
  update  - Update a user's name, email, or active flag
  delete  - Delete a user (blocked while the user owns orders)`,
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	Long: `List all users ordered by id.

Examples:
  tillpoint users list
  tillpoint users list --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUsersList()
	},
}

var usersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new user",
	Long: `Add a new user. The email must be unique.

Examples:
  tillpoint users add --name "Alice Johnson" --email alice@example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUsersAdd()
	},
}

var usersUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a user",
	Long: `Update a user's name, email, or active flag. Only the given flags change.

Examples:
  tillpoint users update 3 --name "Alice J. Johnson"
  tillpoint users update 3 --email alice.j@example.com
  tillpoint users update 3 --active false`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid user id %q", args[0])
		}
		return runUsersUpdate(id)
	},
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a user",
	Long: `Delete a user. A user who owns one or more orders cannot be deleted.

Examples:
  tillpoint users delete 3`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid user id %q", args[0])
		}
		return runUsersDelete(id)
	},
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersListCmd, usersAddCmd, usersUpdateCmd, usersDeleteCmd)

	usersAddCmd.Flags().StringVar(&userName, "name", "", "Full name (required)")
	usersAddCmd.Flags().StringVar(&userEmail, "email", "", "Email address (required, unique)")

	usersUpdateCmd.Flags().StringVar(&userName, "name", "", "New name")
	usersUpdateCmd.Flags().StringVar(&userEmail, "email", "", "New email")
	usersUpdateCmd.Flags().StringVar(&userActive, "active", "", "Active flag: true or false")
}

func runUsersList() error {
	ctx := context.Background()

	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	users, err := db.ListUsers(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(users)
	}

	if len(users) == 0 {
		output.Muted("No users found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tACTIVE\tCREATED")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			u.ID, u.Name, u.Email, output.ActiveFlag(u.Active),
			u.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runUsersAdd() error {
	ctx := context.Background()

	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	user, err := db.CreateUser(ctx, userName, userEmail)
	if err != nil {
		return err
	}

	output.Success("User %q added with id %d", user.Name, user.ID)
	return nil
}

func runUsersUpdate(id int) error {
	ctx := context.Background()

	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	var upd store.UserUpdate
	if userName != "" {
		upd.Name = &userName
	}
	if userEmail != "" {
		upd.Email = &userEmail
	}
	if userActive != "" {
		active, err := strconv.ParseBool(userActive)
		if err != nil {
			return fmt.Errorf("invalid --active value %q: want true or false", userActive)
		}
		upd.Active = &active
	}

	user, err := db.UpdateUser(ctx, id, upd)
	if err != nil {
		return err
	}

	output.Success("User %d updated (%s, %s)", user.ID, user.Name, user.Email)
	return nil
}

func runUsersDelete(id int) error {
	ctx := context.Background()

	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.DeleteUser(ctx, id); err != nil {
		return err
	}

	output.Success("User %d deleted", id)
	return nil
}
