package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/kozaktomas/face-verify/internal/constants"
	"github.com/kozaktomas/face-verify/internal/facematch"
	"github.com/kozaktomas/face-verify/internal/recognition"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll [identity-key] [photo]",
	Short: "Enroll reference photos",
	Long: `Enroll a reference photo for an identity, replacing any earlier enrollment.
Photos are checked with the strict quality profile before anything is stored.

With --dir every image in the directory is enrolled, using the file name
without extension as the identity key.

Examples:
  # Enroll one photo
  face-verify enroll 12345678 ./photos/12345678.jpg

  # Enroll a whole directory with 8 workers, skipping enrolled identities
  face-verify enroll --dir ./photos --concurrency 8 --skip-existing

  # Try a random sample of 50 photos
  face-verify enroll --dir ./photos --sample 50`,
	Args: func(cmd *cobra.Command, args []string) error {
		if mustGetString(cmd, "dir") != "" {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("dir", "", "Directory of photos named <identity-key>.<ext>")
	enrollCmd.Flags().Int("concurrency", constants.DefaultConcurrency, "Number of parallel workers")
	enrollCmd.Flags().Int("limit", 0, "Limit number of photos to process (0 = no limit)")
	enrollCmd.Flags().Int("sample", 0, "Enroll a random subset of this many photos (0 = all)")
	enrollCmd.Flags().Bool("skip-existing", false, "Skip identities that are already enrolled")
}

func runEnroll(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if dir := mustGetString(cmd, "dir"); dir != "" {
		return runEnrollDir(ctx, a, dir, enrollDirOptions{
			concurrency:  mustGetInt(cmd, "concurrency"),
			limit:        mustGetInt(cmd, "limit"),
			sample:       mustGetInt(cmd, "sample"),
			skipExisting: mustGetBool(cmd, "skip-existing"),
		})
	}

	photo, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("reading photo: %w", err)
	}
	res, err := a.svc.Enroll(ctx, args[0], photo)
	if err != nil {
		return err
	}
	printEnrollResult(res)
	if !res.Enrolled {
		return fmt.Errorf("photo rejected: %s", res.Verdict.Reason)
	}
	return nil
}

func printEnrollResult(res *recognition.EnrollResult) {
	if !res.Enrolled {
		fmt.Printf("Rejected %s: %s\n", res.IdentityKey, res.Verdict.Reason)
		fmt.Printf("  %s\n", res.Verdict.Hint)
		return
	}
	action := "Enrolled"
	if res.Replaced {
		action = "Re-enrolled"
	}
	fmt.Printf("%s %s\n", action, res.IdentityKey)
	for _, c := range res.Lookalikes {
		fmt.Printf("  Warning: looks like %s (similarity %.3f)\n", c.IdentityKey, c.Similarity)
	}
}

type enrollDirOptions struct {
	concurrency  int
	limit        int
	sample       int
	skipExisting bool
}

// enrollJob is one photo of a directory batch.
type enrollJob struct {
	key  string
	path string
}

// enrollFailure records why a photo of a batch was not enrolled.
type enrollFailure struct {
	path   string
	reason string
}

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".webp"}

// collectEnrollJobs lists the photos of dir whose stem is a valid identity key.
func collectEnrollJobs(dir string) ([]enrollJob, []enrollFailure, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("reading directory: %w", err)
	}

	var jobs []enrollJob
	var skipped []enrollFailure
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !slices.Contains(imageExtensions, ext) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		key := facematch.NormalizeIdentityKey(strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
		if !facematch.ValidIdentityKey(key) {
			skipped = append(skipped, enrollFailure{path: path, reason: recognition.ErrInvalidIdentityKey.Error()})
			continue
		}
		jobs = append(jobs, enrollJob{key: key, path: path})
	}
	return jobs, skipped, nil
}

// selectEnrollJobs applies sampling and the limit.
func selectEnrollJobs(jobs []enrollJob, sample, limit int, rng *rand.Rand) []enrollJob {
	if sample > 0 && sample < len(jobs) {
		rng.Shuffle(len(jobs), func(i, j int) { jobs[i], jobs[j] = jobs[j], jobs[i] })
		jobs = jobs[:sample]
	}
	if limit > 0 && limit < len(jobs) {
		jobs = jobs[:limit]
	}
	return jobs
}

func runEnrollDir(ctx context.Context, a *app, dir string, opts enrollDirOptions) error {
	jobs, failures, err := collectEnrollJobs(dir)
	if err != nil {
		return err
	}
	jobs = selectEnrollJobs(jobs, opts.sample, opts.limit, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))

	var skipped int
	if opts.skipExisting {
		var pending []enrollJob
		for _, j := range jobs {
			has, err := a.svc.IsEnrolled(ctx, j.key)
			if err != nil {
				return fmt.Errorf("failed to check enrollment: %w", err)
			}
			if !has {
				pending = append(pending, j)
			}
		}
		skipped = len(jobs) - len(pending)
		jobs = pending
	}

	if len(jobs) == 0 {
		fmt.Println("Nothing to enroll")
		return nil
	}
	fmt.Printf("Photos to enroll: %d (skipping %d already enrolled)\n\n", len(jobs), skipped)

	bar := progressbar.NewOptions(len(jobs),
		progressbar.OptionSetDescription("Enrolling"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	var (
		mu       sync.Mutex
		enrolled int
		wg       sync.WaitGroup
	)
	sem := make(chan struct{}, max(opts.concurrency, 1))

	for _, job := range jobs {
		wg.Add(1)
		go func(j enrollJob) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			defer bar.Add(1)

			reason := enrollOne(ctx, a, j)
			mu.Lock()
			defer mu.Unlock()
			if reason != "" {
				failures = append(failures, enrollFailure{path: j.path, reason: reason})
				return
			}
			enrolled++
		}(job)
	}
	wg.Wait()
	bar.Finish()

	fmt.Printf("\n\nEnrolled: %d, failed: %d\n", enrolled, len(failures))
	printFailures(failures)
	if enrolled == 0 {
		return errors.New("no photos were enrolled")
	}
	return nil
}

// enrollOne enrolls a single photo and returns a failure reason, if any.
func enrollOne(ctx context.Context, a *app, j enrollJob) string {
	photo, err := os.ReadFile(j.path)
	if err != nil {
		return err.Error()
	}
	res, err := a.svc.Enroll(ctx, j.key, photo)
	if err != nil {
		return err.Error()
	}
	if !res.Enrolled {
		return string(res.Verdict.Reason)
	}
	return ""
}

func printFailures(failures []enrollFailure) {
	if len(failures) == 0 {
		return
	}
	slices.SortFunc(failures, func(a, b enrollFailure) int { return strings.Compare(a.path, b.path) })
	fmt.Println("Errors:")
	for i, f := range failures {
		if i == constants.MaxReportedErrors {
			fmt.Printf("  ... and %d more\n", len(failures)-i)
			break
		}
		fmt.Printf("  %s: %s\n", filepath.Base(f.path), f.reason)
	}
}
