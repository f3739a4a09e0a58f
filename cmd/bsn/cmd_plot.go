package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/fraziphy/balanced-spiking-network/internal/visualization"
)

func newRunsPlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot <id>",
		Short: "Render a raster plot of a run",
		Long: `Render the spikes of a catalog run as a raster plot with the population
rate below it. Excitatory neurons are blue, inhibitory neurons red.

Without --svg, --html or --serve the SVG is written to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := openCatalog(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			info, err := cat.GetRun(ctx, args[0])
			if err != nil {
				cat.Close()
				return err
			}
			spikes, err := cat.Spikes(ctx, info.ID)
			cat.Close()
			if err != nil {
				return err
			}

			bin, _ := cmd.Flags().GetFloat64("bin")
			raster := &visualization.Raster{
				Title:      fmt.Sprintf("Run %s (seed %d, session %d, trial %d)", info.ID, info.Entropy, info.Session, info.Trial),
				Neurons:    info.Meta.Topology.N,
				Excitatory: info.Meta.Topology.NE(),
				Duration:   info.Duration,
				Spikes:     spikes,
				BinMS:      bin,
			}

			svgPath, _ := cmd.Flags().GetString("svg")
			htmlPath, _ := cmd.Flags().GetString("html")
			serve, _ := cmd.Flags().GetBool("serve")

			if svgPath != "" {
				if err := os.WriteFile(svgPath, raster.SVG(), 0644); err != nil {
					return fmt.Errorf("failed to write svg: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", svgPath)
			}
			if htmlPath != "" {
				html, err := raster.HTML()
				if err != nil {
					return err
				}
				if err := os.WriteFile(htmlPath, html, 0644); err != nil {
					return fmt.Errorf("failed to write html: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", htmlPath)
			}
			if serve {
				noBrowser, _ := cmd.Flags().GetBool("no-browser")
				return serveRaster(ctx, cmd, raster, !noBrowser)
			}
			if svgPath == "" && htmlPath == "" {
				_, err := cmd.OutOrStdout().Write(raster.SVG())
				return err
			}
			return nil
		},
	}
	cmd.Flags().String("svg", "", "Write the plot as SVG to this file")
	cmd.Flags().String("html", "", "Write a standalone HTML page to this file")
	cmd.Flags().Bool("serve", false, "Serve the plot on localhost until interrupted")
	cmd.Flags().Bool("no-browser", false, "With --serve, do not open a browser")
	cmd.Flags().Float64("bin", 5, "Population rate bin width (ms)")
	return cmd
}

func serveRaster(ctx context.Context, cmd *cobra.Command, raster *visualization.Raster, open bool) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	srv := visualization.NewServer(raster)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(ctx) }()

	for srv.Addr() == "" {
		select {
		case err := <-errCh:
			return err
		case <-time.After(10 * time.Millisecond):
		}
	}
	url := "http://" + srv.Addr() + "/"
	fmt.Fprintf(cmd.ErrOrStderr(), "Serving raster at %s (Ctrl+C to stop)\n", url)
	if open {
		if err := visualization.OpenBrowser(url); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: could not open browser: %v\n", err)
		}
	}
	return <-errCh
}
