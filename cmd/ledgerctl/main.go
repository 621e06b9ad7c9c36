// ledgerctl herramientas de operación del libro de consumo.
//
// Uso:
//
//	ledgerctl migrate                       aplica las migraciones embebidas (DATABASE_URL / DB_*)
//	ledgerctl seed-catalog catalogo.xlsx    genera el SQL de carga inicial del catálogo
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/garment-ledger/internal/infrastructure/catalog"
	"github.com/jhoicas/garment-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/garment-ledger/pkg/config"
	"github.com/jhoicas/garment-ledger/pkg/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Aplica las migraciones pendientes.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
		if err := postgres.Migrate(cfg.DB.ConnectionString(), log); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		log.Info().Msg("migraciones aplicadas")
		return nil
	},
}

var seedCatalogCmd = &cobra.Command{
	Use:   "seed-catalog <catalogo.xlsx>",
	Short: "Genera el script SQL del catálogo inicial (telas, accesorios, reglas de costo).",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := excelize.OpenFile(args[0])
		if err != nil {
			return fmt.Errorf("abrir XLSX: %w", err)
		}
		defer f.Close()

		c, err := catalog.Read(f)
		if err != nil {
			return err
		}

		outPath, _ := cmd.Flags().GetString("out")
		if outPath == "" {
			outPath = filepath.Join(findModuleRoot(), "seed_catalog.sql")
		}
		out, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("crear archivo: %w", err)
		}
		defer out.Close()

		if err := catalog.WriteSQL(out, c); err != nil {
			return fmt.Errorf("escribir SQL: %w", err)
		}
		fmt.Printf("Generado %s: %d telas, %d accesorios, %d reglas de costo\n",
			outPath, len(c.Fabrics), len(c.Accessories), len(c.CostRules))
		return nil
	},
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Herramientas del libro de consumo de inventario",
	}
	seedCatalogCmd.Flags().String("out", "", "Ruta del script SQL (por defecto <módulo>/seed_catalog.sql)")
	rootCmd.AddCommand(migrateCmd, seedCatalogCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
