package commands

import (
	"errors"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"pharmacy/m/internal/auth"
	"pharmacy/m/internal/seed"
	"pharmacy/m/internal/store"
)

var (
	// Seed flags
	csvPath string
)

// bootstrapCmd reconciles the configured administrator accounts
var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Create or restore the bootstrap administrator accounts",
	Long: `Ensure every account listed in BOOTSTRAP_ADMINS exists, is active and holds
its configured role. New accounts get DEFAULT_ADMIN_PASSWORD.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()
		return seed.ReconcileAdmins(cmd.Context(), store.New(rt.db), auth.NewPasswords(bcrypt.DefaultCost),
			rt.cfg.Accounts.BootstrapAdmins, rt.cfg.Accounts.DefaultAdminPassword, rt.logger)
	},
}

// seedCmd loads a medicine catalog
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a medicine catalog CSV",
	Long: `Load medicines from a CSV file with the columns
name,generic_name,batch_number,expiry_date,unit_price,stock_qty[,supplier].
Names already in the catalog are skipped.

Examples:
  pharmacy seed --csv assets/medicine.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()
		path := csvPath
		if path == "" {
			path = rt.cfg.CatalogCSV
		}
		if path == "" {
			return errors.New("no catalog given, pass --csv or set CATALOG_CSV")
		}
		rows, err := seed.LoadMedicines(cmd.Context(), store.New(rt.db), path, rt.logger)
		if err != nil {
			return err
		}
		cmd.Printf("inserted %d medicines\n", rows)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&csvPath, "csv", "", "Path to the catalog CSV")
	rootCmd.AddCommand(bootstrapCmd)
	rootCmd.AddCommand(seedCmd)
}
