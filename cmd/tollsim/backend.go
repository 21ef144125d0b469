package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/ukydev/toll-scenario/internal/display"
	"github.com/ukydev/toll-scenario/internal/render"
)

func (a *app) zonesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "zones",
		Short: "Fetch the toll zones and print them as GeoJSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			zones, err := a.backend().FetchTollZones(cmd.Context())
			if err != nil {
				return err
			}
			return writeGeoJSON(cmd.OutOrStdout(), display.TollZoneCollection(zones))
		},
	}
}

func (a *app) highwaysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "highways",
		Short: "Fetch the highways and print them as GeoJSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			highways, err := a.backend().FetchHighways(cmd.Context())
			if err != nil {
				return err
			}
			return writeGeoJSON(cmd.OutOrStdout(), display.HighwayCollection(highways))
		},
	}
}

func (a *app) uploadCmd() *cobra.Command {
	var async bool

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Trigger GPS track ingestion on the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctrl, _ := a.headless()
			err := ctrl.UploadGPSTracks(cmd.Context(), async)
			panel := ctrl.Panel()
			printPanel(cmd.OutOrStdout(), &panel)
			return err
		},
	}

	cmd.Flags().BoolVar(&async, "async", false, "process asynchronously and print the request id")
	return cmd
}

func (a *app) downloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download [request-id]",
		Short: "Fetch the routes of an asynchronous upload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, _ := a.headless()
			err := ctrl.DownloadGPSTracks(cmd.Context(), args[0])
			panel := ctrl.Panel()
			printPanel(cmd.OutOrStdout(), &panel)
			return err
		},
	}
}

func writeGeoJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode geojson: %w", err)
	}
	return nil
}

func printPanel(w io.Writer, p *render.Panel) {
	fmt.Fprint(w, p.Text())
}
