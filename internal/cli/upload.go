package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"evolve/internal/domain"
	"evolve/internal/ingest"
	"evolve/internal/service"
)

var (
	uploadTitle     string
	uploadSource    string
	uploadLevel     string
	uploadAITagging bool
	uploadAPIURL    string
)

var uploadCmd = &cobra.Command{
	Use:   "upload [file]",
	Short: "Upload a single document",
	Long: `Chunks, tags and embeds one file and stores its vectors. The title
defaults to the file name without extension and the source to the path.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&uploadTitle, "title", "", "document title (default file name)")
	uploadCmd.Flags().StringVar(&uploadSource, "source", "", "document source (default file path)")
	uploadCmd.Flags().StringVar(&uploadLevel, "level", domain.LevelBeginner, "program level: beginner, intermediate or advanced")
	uploadCmd.Flags().BoolVar(&uploadAITagging, "ai-tagging", false, "enable AI-enhanced tagging")
	uploadCmd.Flags().StringVar(&uploadAPIURL, "api-url", "", "upload through a running API server instead of in process")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	if !domain.IsProgramLevel(uploadLevel) {
		return fmt.Errorf("invalid level %q: must be one of %v", uploadLevel, domain.ProgramLevels)
	}
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	req := service.UploadRequest{
		Text:         string(data),
		Title:        uploadTitle,
		Source:       uploadSource,
		ProgramLevel: uploadLevel,
		UseAITagging: uploadAITagging,
	}
	if req.Title == "" {
		req.Title = ingest.Title(path)
	}
	if req.Source == "" {
		req.Source = path
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	uploader, closeFn, err := resolveUploader(ctx, uploadAPIURL)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, cancel := context.WithTimeout(ctx, secs(cfg.Ingest.UploadTimeoutSecs))
	defer cancel()
	res, err := uploader.Upload(ctx, req)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	data, err = json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
