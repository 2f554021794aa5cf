package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"driving-exam-service/internal/config"
	"driving-exam-service/internal/infra/memory"
	"driving-exam-service/internal/infra/postgres"
	"driving-exam-service/internal/logger"
)

// NewImportBankCmd loads a JSON question bank into Postgres. Without --file
// the embedded sample bank is imported.
func NewImportBankCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import-bank",
		Short: "Import a JSON question bank into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log := logger.Setup(cfg.Log.Level, cfg.Log.Format)

			var loader memory.BankLoader = memory.SampleBankLoader()
			if file != "" {
				loader = memory.NewFileBankLoader(file)
			}
			questions, err := loader.LoadQuestions(ctx)
			if err != nil {
				return err
			}

			if err := runMigrations(ctx, cfg, log); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			db, err := openBunDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := postgres.ImportQuestions(ctx, db, questions)
			if err != nil {
				return err
			}
			log.Info().Int("questions", n).Str("file", file).Msg("question bank imported")
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "path to a JSON array of questions")
	return cmd
}
