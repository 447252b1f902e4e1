package cmd

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/SkyDragon00/ProyectoFinalProcesos/internal/config"
	"github.com/SkyDragon00/ProyectoFinalProcesos/internal/recognition"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll --person <name> <photo|folder> [photo|folder...]",
	Short: "Enroll reference photos for a person",
	Long: `Enroll one or more reference photos for a person. Each photo is run
through the embedding model and its embedding is added to the person's
reference set. Folders are scanned for image files (non-recursive unless -r is given).

Example:
  facegate enroll --person "Maria Jose" /photos/maria/
  facegate enroll --person "Juan Perez" juan1.jpg juan2.jpg`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)
	enrollCmd.Flags().String("person", "", "Name of the person to enroll (required)")
	enrollCmd.Flags().BoolP("recursive", "r", false, "Scan folders recursively")
	enrollCmd.MarkFlagRequired("person")
}

// isImageFile checks if a file has a supported image extension
func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".webp", ".bmp":
		return true
	}
	return false
}

// collectImagePaths expands files and folders into a flat list of image paths.
func collectImagePaths(args []string, recursive bool) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		if recursive {
			err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() && isImageFile(d.Name()) {
					paths = append(paths, path)
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("cannot walk folder %s: %w", arg, err)
			}
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot read folder %s: %w", arg, err)
		}
		for _, e := range entries {
			if !e.IsDir() && isImageFile(e.Name()) {
				paths = append(paths, filepath.Join(arg, e.Name()))
			}
		}
	}
	return paths, nil
}

func runEnroll(cmd *cobra.Command, args []string) error {
	person := mustGetString(cmd, "person")
	cfg := config.Load()

	paths, err := collectImagePaths(args, mustGetBool(cmd, "recursive"))
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no image files found")
	}

	ctx := context.Background()
	svc, cleanup, err := buildService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Printf("Enrolling %d photos for %s\n\n", len(paths), person)

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetDescription("Enrolling"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	var failures []string
	enrolled := 0
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", filepath.Base(path), err))
			bar.Add(1)
			continue
		}

		if _, err := svc.EnrollIdentity(ctx, recognition.EnrollRequest{Name: person, Image: data}); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", filepath.Base(path), err))
			bar.Add(1)
			continue
		}
		enrolled++
		bar.Add(1)
	}
	fmt.Println()

	for _, msg := range failures {
		fmt.Printf("Failed: %s\n", msg)
	}
	fmt.Printf("\nEnrolled %d/%d reference photos for %s\n", enrolled, len(paths), person)
	return nil
}
