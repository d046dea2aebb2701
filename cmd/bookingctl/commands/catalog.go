package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iliyamo/restaurant-booking/internal/apperr"
	"github.com/iliyamo/restaurant-booking/internal/config"
	"github.com/iliyamo/restaurant-booking/internal/model"
	"github.com/iliyamo/restaurant-booking/internal/repository"
)

var (
	// user add flags
	userEmail    string
	userPassword string
	userRole     string
	bcryptCost   int

	// restaurant add flags
	managerEmail   string
	restaurantName string

	// table add flags
	tableRestaurant uint64
	tableNumber     uint32
	tableCapacity   uint32
)

type userCreator interface {
	Create(ctx context.Context, email, password string, role model.Role, cost int) (uint64, error)
}

type userFinder interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
}

type restaurantCreator interface {
	CreateRestaurant(ctx context.Context, managerID uint64, name string) (uint64, error)
}

// parseRoleFlag accepts only the three known role names; unlike tokens,
// an operator typo must not silently become a customer.
func parseRoleFlag(s string) (model.Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case model.RoleNameCustomer:
		return model.RoleCustomer, nil
	case model.RoleNameManager:
		return model.RoleManager, nil
	case model.RoleNameAdmin:
		return model.RoleAdmin, nil
	}
	return 0, fmt.Errorf("%w: unknown role %q", apperr.ErrValidation, s)
}

func addUser(ctx context.Context, users userCreator, email, password, role string, cost int) (uint64, model.Role, error) {
	r, err := parseRoleFlag(role)
	if err != nil {
		return 0, 0, err
	}
	if len(password) < 8 {
		return 0, 0, fmt.Errorf("%w: password must be at least 8 characters", apperr.ErrValidation)
	}
	id, err := users.Create(ctx, email, password, r, cost)
	return id, r, err
}

// addRestaurant looks up the manager by email. The account must already
// carry the restaurant_manager role.
func addRestaurant(ctx context.Context, users userFinder, cat restaurantCreator, email, name string) (uint64, uint64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, 0, fmt.Errorf("%w: name is required", apperr.ErrValidation)
	}
	u, err := users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, fmt.Errorf("%w: no user with email %s", apperr.ErrNotFound, email)
		}
		return 0, 0, err
	}
	if model.ParseRole(u.Role) != model.RoleManager {
		return 0, 0, fmt.Errorf("%w: %s has role %s, want %s", apperr.ErrValidation, u.Email, u.Role, model.RoleNameManager)
	}
	id, err := cat.CreateRestaurant(ctx, u.ID, name)
	return id, u.ID, err
}

var userCmd = &cobra.Command{Use: "user", Short: "Manage user accounts"}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a user (customer unless --role says otherwise)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := parseRoleFlag(userRole); err != nil {
			return err
		}
		db, ctx, cancel, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer cancel()
		defer db.Close()
		id, role, err := addUser(ctx, repository.NewUserRepo(db), userEmail, userPassword, userRole, bcryptCost)
		if err != nil {
			return err
		}
		Success("created user %d", id)
		Muted("  email: %s  role: %s", strings.ToLower(strings.TrimSpace(userEmail)), role)
		return nil
	},
}

var restaurantCmd = &cobra.Command{Use: "restaurant", Short: "Manage restaurants"}

var restaurantAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a restaurant for an existing manager account",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, ctx, cancel, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer cancel()
		defer db.Close()
		tables := repository.NewTableRepo(db, nil, config.CatalogCacheConfig{})
		id, managerID, err := addRestaurant(ctx, repository.NewUserRepo(db), tables, managerEmail, restaurantName)
		if err != nil {
			return err
		}
		Success("created restaurant %d", id)
		Muted("  name: %s  manager: %d", strings.TrimSpace(restaurantName), managerID)
		return nil
	},
}

var tableCmd = &cobra.Command{Use: "table", Short: "Manage restaurant tables"}

var tableAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a table to a restaurant",
	RunE: func(cmd *cobra.Command, args []string) error {
		if tableNumber == 0 || tableCapacity == 0 {
			return fmt.Errorf("%w: --number and --capacity must be positive", apperr.ErrValidation)
		}
		db, ctx, cancel, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer cancel()
		defer db.Close()
		// new ids never have stale entries, but a reused id after a restore might
		rdb := config.NewRedisClient()
		if rdb != nil {
			defer rdb.Close()
		}
		t, err := repository.NewTableRepo(db, rdb, config.LoadCatalogCacheConfig()).
			CreateTable(ctx, tableRestaurant, tableNumber, tableCapacity)
		if err != nil {
			return err
		}
		Success("created table %d", t.ID)
		Muted("  restaurant: %d  number: %d  capacity: %d  manager: %d", t.RestaurantID, t.Number, t.Capacity, t.ManagerID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(userCmd, restaurantCmd, tableCmd)
	userCmd.AddCommand(userAddCmd)
	restaurantCmd.AddCommand(restaurantAddCmd)
	tableCmd.AddCommand(tableAddCmd)

	userAddCmd.Flags().StringVar(&userEmail, "email", "", "Login email (required)")
	userAddCmd.Flags().StringVar(&userPassword, "password", "", "Initial password (required)")
	userAddCmd.Flags().StringVar(&userRole, "role", model.RoleNameCustomer, "customer, restaurant_manager or admin")
	userAddCmd.Flags().IntVar(&bcryptCost, "bcrypt-cost", 12, "bcrypt cost factor")
	_ = userAddCmd.MarkFlagRequired("email")
	_ = userAddCmd.MarkFlagRequired("password")

	restaurantAddCmd.Flags().StringVar(&managerEmail, "manager-email", "", "Email of the restaurant_manager account (required)")
	restaurantAddCmd.Flags().StringVar(&restaurantName, "name", "", "Restaurant name (required)")
	_ = restaurantAddCmd.MarkFlagRequired("manager-email")
	_ = restaurantAddCmd.MarkFlagRequired("name")

	tableAddCmd.Flags().Uint64Var(&tableRestaurant, "restaurant", 0, "Restaurant id (required)")
	tableAddCmd.Flags().Uint32Var(&tableNumber, "number", 0, "Table number within the restaurant (required)")
	tableAddCmd.Flags().Uint32Var(&tableCapacity, "capacity", 0, "Seats at the table (required)")
	_ = tableAddCmd.MarkFlagRequired("restaurant")
	_ = tableAddCmd.MarkFlagRequired("number")
	_ = tableAddCmd.MarkFlagRequired("capacity")
}
