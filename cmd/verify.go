package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kozaktomas/face-verify/internal/recognition"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [photo]",
	Short: "Verify a photo against all enrollments",
	Long: `Run a single photo through the verification pipeline and print the result.

Examples:
  face-verify verify ./frame.jpg
  face-verify verify ./frame.jpg --threshold 0.6 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().Float64("threshold", 0, "Similarity threshold (0 = configured MATCH_THRESHOLD)")
	verifyCmd.Flags().Bool("json", false, "Print the full result as JSON")
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	image, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading photo: %w", err)
	}

	req := recognition.VerifyRequest{Image: image, Mode: recognition.ModeSingle}
	if cmd.Flags().Changed("threshold") {
		threshold := mustGetFloat64(cmd, "threshold")
		req.Threshold = &threshold
	}

	res, err := a.svc.Verify(ctx, req)
	if err != nil {
		return err
	}

	if mustGetBool(cmd, "json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	if res.Accepted {
		fmt.Printf("Verified: %s (confidence %.3f)\n", res.IdentityKey, *res.Confidence)
		if res.PoseWarning {
			fmt.Printf("  Warning: %s\n", res.Hint)
		}
		return nil
	}
	fmt.Printf("Not verified: %s\n", res.ReasonCode)
	if res.Best != nil && res.Second != nil {
		fmt.Printf("  Best %s (%.3f), second %s (%.3f), gap %.3f < %.2f\n",
			res.Best.IdentityKey, res.Best.Similarity, res.Second.IdentityKey, res.Second.Similarity,
			*res.Gap, *res.MinRequiredGap)
	}
	if res.Hint != "" {
		fmt.Printf("  %s\n", res.Hint)
	}
	return nil
}
