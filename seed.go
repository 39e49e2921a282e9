package main

import (
	"log"
	"os"

	"github.com/Kariqs/pizzaking-api/initializers"
	"github.com/Kariqs/pizzaking-api/services"
	"github.com/spf13/cobra"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load pizzas, toppings and promotions from a YAML file",
	Long: `Load the menu from a YAML file.

Pizzas and toppings are matched by name and updated in place. Promotions are
only created when their code does not exist yet.

Example:
  pizzaking seed --file menu.yaml`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "menu.yaml", "menu file to load")
}

func runSeed(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(seedFile)
	if err != nil {
		return err
	}
	seed, err := services.ParseMenuSeed(data)
	if err != nil {
		return err
	}

	if _, err := bootstrap(); err != nil {
		return err
	}
	if err := initializers.SyncDatabase(); err != nil {
		return err
	}

	result, err := services.SeedMenu(cmd.Context(), seed)
	if err != nil {
		return err
	}
	log.Printf("Seeded %d pizzas, %d toppings and %d new promotions from %s", result.Pizzas, result.Toppings, result.Promotions, seedFile)
	return nil
}
