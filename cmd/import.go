package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/classtrack/classtrack/internal/config"
	"github.com/classtrack/classtrack/internal/constants"
	"github.com/classtrack/classtrack/internal/extractor"
	"github.com/classtrack/classtrack/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import <roster.yaml>",
	Short: "Bulk-import students from a YAML roster file",
	Long: `Import students from a YAML roster file into the database.
Each entry needs student_id, name, course and year. When an entry carries a
photo path, the image is sent to the extractor service and the resulting
face encoding is stored alongside the student.

Already registered student IDs are skipped.

Example roster file:
  - student_id: S101
    name: Ada Lovelace
    course: BCA
    year: "3"
    photo: photos/s101.jpg

Examples:
  # Import a roster (3 concurrent extractor calls)
  classtrack import roster.yaml

  # Import without contacting the extractor
  classtrack import roster.yaml --skip-photos`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().Int("concurrency", 3, "Number of parallel extractor calls")
	importCmd.Flags().Bool("skip-photos", false, "Skip photo enrollment, import roster data only")
}

// rosterEntry is one row of the YAML roster file.
type rosterEntry struct {
	StudentID string `yaml:"student_id"`
	Name      string `yaml:"name"`
	Course    string `yaml:"course"`
	Year      string `yaml:"year"`
	Photo     string `yaml:"photo"`
}

func (e rosterEntry) validate() error {
	if e.StudentID == "" || e.Name == "" || e.Course == "" || e.Year == "" {
		return fmt.Errorf("entry %q: student_id, name, course and year are required", e.StudentID)
	}
	return nil
}

// loadRoster parses and validates the YAML roster file.
func loadRoster(path string) ([]rosterEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster file: %w", err)
	}

	var entries []rosterEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse roster file: %w", err)
	}
	for _, e := range entries {
		if err := e.validate(); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// enrollPhoto reads the photo, resizes it and asks the extractor for the
// primary face encoding. Returns nil when no face was detected.
func enrollPhoto(ctx context.Context, client *extractor.Client, path string) ([]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read photo: %w", err)
	}
	resized, err := extractor.ResizeImage(data, constants.MaxImageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to resize photo: %w", err)
	}
	return client.ExtractPrimaryFace(ctx, resized)
}

func runImport(cmd *cobra.Command, args []string) error {
	concurrency := mustGetInt(cmd, "concurrency")
	skipPhotos := mustGetBool(cmd, "skip-photos")

	ctx := context.Background()
	cfg := config.Load()

	entries, err := loadRoster(args[0])
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("Roster file is empty, nothing to import")
		return nil
	}
	fmt.Printf("Roster entries to import: %d\n", len(entries))

	stores, closer, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	client := extractor.NewClient(cfg.Extractor.URL)

	bar := progressbar.NewOptions(len(entries),
		progressbar.OptionSetDescription("Importing students"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("students"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	var imported, skipped, noFace, errorCount int
	var mu sync.Mutex

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for _, entry := range entries {
		wg.Add(1)
		go func(e rosterEntry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			defer bar.Add(1)

			student := &store.Student{
				StudentID: e.StudentID,
				Name:      e.Name,
				Course:    e.Course,
				Year:      e.Year,
			}

			if e.Photo != "" && !skipPhotos {
				encoding, err := enrollPhoto(ctx, client, e.Photo)
				if err != nil {
					mu.Lock()
					errorCount++
					mu.Unlock()
					return
				}
				if encoding == nil {
					mu.Lock()
					noFace++
					mu.Unlock()
				}
				student.FaceEncoding = encoding
			}

			if err := stores.Roster.InsertStudent(ctx, student); err != nil {
				mu.Lock()
				if errors.Is(err, store.ErrDuplicateStudent) {
					skipped++
				} else {
					errorCount++
				}
				mu.Unlock()
				return
			}

			mu.Lock()
			imported++
			mu.Unlock()
		}(entry)
	}

	wg.Wait()
	fmt.Println()

	total, _ := stores.Roster.CountStudents(ctx)
	fmt.Printf("\nCompleted: %d imported, %d already registered, %d errors\n", imported, skipped, errorCount)
	if noFace > 0 {
		fmt.Printf("Imported without encoding (no face detected): %d\n", noFace)
	}
	fmt.Printf("Total students in database: %d\n", total)

	return nil
}
