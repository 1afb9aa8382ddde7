package cmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/spf13/cobra"

	"img2pdf/internal/collector"
	"img2pdf/internal/converter"
)

func newConvertCmd(opts *rootOptions) *cobra.Command {
	var (
		urls       []string
		outDir     string
		cpuprofile string
		memprofile string
	)

	cmd := &cobra.Command{
		Use:   "convert [images...]",
		Short: "Convert images into converted.pdf",
		Long: `Collects the given files, then any --url images, in the order given and
writes them into converted.pdf in the output directory.

PNG and JPEG files become pages. Files of any other type are skipped.
A file that claims to be PNG or JPEG but cannot be decoded stops the
conversion and nothing is written.`,
		Example: `  # Convert two local images
  img2pdf convert cover.png page1.jpg

  # Mix local files and remote images, write into ./out
  img2pdf convert scan.jpg --url https://example.com/a.png --out-dir out`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cpuprofile != "" {
				f, err := os.Create(cpuprofile)
				if err != nil {
					return fmt.Errorf("could not create CPU profile: %w", err)
				}
				defer f.Close()
				if err := pprof.StartCPUProfile(f); err != nil {
					return fmt.Errorf("could not start CPU profile: %w", err)
				}
				defer pprof.StopCPUProfile()
				slog.Info("CPU profiling enabled", "path", cpuprofile)
			}

			dir := opts.cfg.Output.Dir
			if cmd.Flags().Changed("out-dir") {
				dir = outDir
			}

			images := collector.New(nil)
			for _, path := range args {
				images.AddFiles(collector.OSFile{Path: path})
			}
			client := &http.Client{Timeout: opts.cfg.Fetch.Timeout}
			for _, u := range urls {
				images.AddFiles(collector.NewURLFile(u, client))
			}

			res, err := converter.New(nil, converter.DirSaver{Dir: dir}).Convert(cmd.Context(), images)
			if err != nil {
				return err
			}
			for _, s := range res.Skipped {
				slog.Warn("Skipped unsupported file", "index", s.Index, "name", s.Name, "media_type", s.MediaType)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d pages)\n", filepath.Join(dir, res.Filename), res.Pages)

			if memprofile != "" {
				f, err := os.Create(memprofile)
				if err != nil {
					return fmt.Errorf("could not create memory profile: %w", err)
				}
				defer f.Close()
				runtime.GC() // Get up-to-date statistics
				if err := pprof.WriteHeapProfile(f); err != nil {
					return fmt.Errorf("could not write memory profile: %w", err)
				}
				slog.Info("Memory profile written", "path", memprofile)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&urls, "url", nil, "Image URL to fetch and append (repeatable)")
	cmd.Flags().StringVarP(&outDir, "out-dir", "o", ".", "Directory to write converted.pdf into")
	cmd.Flags().StringVar(&cpuprofile, "cpuprofile", "", "Write cpu profile to `file`")
	cmd.Flags().StringVar(&memprofile, "memprofile", "", "Write memory profile to `file`")

	return cmd
}
