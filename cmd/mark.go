package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/classtrack/classtrack/internal/attendance"
	"github.com/classtrack/classtrack/internal/config"
	"github.com/classtrack/classtrack/internal/constants"
	"github.com/classtrack/classtrack/internal/extractor"
)

var markCmd = &cobra.Command{
	Use:   "mark <image>",
	Short: "Mark attendance from a face photo",
	Long: `Mark attendance from a photo file.
The image is sent to the extractor service, the detected face is matched
against the roster and, when today's exam for the student's course exists,
a Present record is written and absentees for the course are swept.

Examples:
  # Mark attendance from a webcam capture
  classtrack mark capture.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runMark,
}

func init() {
	rootCmd.AddCommand(markCmd)
}

func runMark(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := config.Load()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	resized, err := extractor.ResizeImage(data, constants.MaxImageSize)
	if err != nil {
		return fmt.Errorf("failed to resize image: %w", err)
	}

	client := extractor.NewClient(cfg.Extractor.URL)
	fmt.Println("Extracting face encoding...")
	probe, err := client.ExtractPrimaryFace(ctx, resized)
	if err != nil {
		return fmt.Errorf("failed to extract face: %w", err)
	}
	if probe == nil {
		return fmt.Errorf("no face detected in %s", args[0])
	}

	stores, closer, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	matcher := attendance.NewMatcher(stores.Roster, cfg.Matcher.Threshold)
	resolver := attendance.NewExamResolver(stores.Exams, nil)
	reconciler := attendance.NewReconciler(stores.Roster, stores.Ledger, nil)
	engine := attendance.NewEngine(matcher, resolver, reconciler)

	result, err := engine.MarkByProbe(ctx, probe)
	if err != nil {
		switch {
		case attendance.IsNoFaceMatch(err):
			return fmt.Errorf("face not recognized against the roster")
		case attendance.IsNoExamScheduled(err):
			return fmt.Errorf("no exam scheduled today: %w", err)
		default:
			return err
		}
	}

	if result.AlreadyMarked {
		fmt.Printf("%s (%s) is already marked present for %s on %s\n",
			result.Student.Name, result.Student.StudentID, result.Exam.ExamName, result.Record.ExamDate)
		return nil
	}

	fmt.Printf("Marked %s (%s) present for %s on %s\n",
		result.Student.Name, result.Student.StudentID, result.Exam.ExamName, result.Record.ExamDate)
	if result.AbsentMarked > 0 {
		fmt.Printf("Swept %d absentees for course %s\n", result.AbsentMarked, result.Student.Course)
	}
	return nil
}
