// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package cmd

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/earthdata-lab/icesat2subsetter/config"
	"github.com/earthdata-lab/icesat2subsetter/internal/archive"
	"github.com/earthdata-lab/icesat2subsetter/internal/healthcheck"
	"github.com/earthdata-lab/icesat2subsetter/internal/parms"
	"github.com/earthdata-lab/icesat2subsetter/internal/subsetter"
)

func init() {
	var (
		assetDir    string
		asset       string
		resource    string
		track       int
		surfaceType int
		extentLen   float64
		extentStep  float64
		minPhotons  int
		spread      float64
		distInSeg   bool
		passInvalid bool
		atl08       bool
		yapc        bool
		phoreal     bool
		yapcVersion int
		yapcScore   uint8
		yapcKnn     int
		yapcMinKnn  int
		yapcWinH    float64
		yapcWinX    float64
		aboveClass  bool
	)

	subsetCmd := &cobra.Command{
		Use:   "subset",
		Short: "Subset one granule resource and write extent records as NDJSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if resource == "" {
				return fmt.Errorf("--resource is required")
			}
			if assetDir == "" {
				return fmt.Errorf("--asset-dir is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			p := parms.Default()
			p.Track = parms.Track(track)
			p.SurfaceType = surfaceType
			p.ExtentLength = extentLen
			p.ExtentStep = extentStep
			p.MinimumPhotonCount = minPhotons
			p.AlongTrackSpread = spread
			p.DistInSeg = distInSeg
			p.PassInvalid = passInvalid
			p.Stages = parms.Stages{Atl08: atl08, Yapc: yapc, Phoreal: phoreal}
			p.Yapc = parms.YapcParms{
				Version: parms.YapcVersion(yapcVersion),
				Score:   yapcScore,
				Knn:     yapcKnn,
				MinKnn:  yapcMinKnn,
				WinH:    yapcWinH,
				WinX:    yapcWinX,
			}
			p.Phoreal = parms.PhorealParms{AboveClassifier: aboveClass}
			p.ReadTimeoutMs = cfg.Subsetter.ReadTimeoutSeconds * 1000

			ctx, cancel := handleSignals(cmd.Context())
			defer cancel()

			healthConfig := healthcheck.GetConfigFromEnv()
			healthServer := healthcheck.NewServer(healthConfig)
			go func() {
				if err := healthServer.Start(ctx); err != nil {
					slog.Error("health check server stopped", "error", err)
				}
			}()
			healthServer.SetStatus(healthcheck.StatusHealthy)
			healthServer.SetReady(true)
			defer healthServer.SetReady(false)

			result := subsetter.Run(ctx, subsetter.Request{
				Opener:      archive.NewLocalDriver(assetDir),
				Asset:       asset,
				Resource:    resource,
				Params:      p,
				QueueDepth:  cfg.Subsetter.OutputQueueDepth,
				PostRetries: cfg.Subsetter.PostRetries,
				RetryDelay:  time.Duration(cfg.Subsetter.PostRetryBackoffMS) * time.Millisecond,
				MaxBeams:    cfg.Subsetter.MaxBeams,
			})

			w := bufio.NewWriter(os.Stdout)
			defer w.Flush()
			for rec := range result.Queue.Records() {
				if rec.Len() == 0 {
					break
				}
				w.Write(rec.Bytes)
				w.WriteByte('\n')
			}

			slog.Info("subset request finished",
				"request_id", result.RequestID,
				"extents_sent", result.Stats.ExtentsSent,
				"extents_dropped", result.Stats.ExtentsDropped,
				"post_retries", result.Stats.PostRetries,
				"beams_completed", result.Stats.BeamsCompleted,
			)

			return result.Err
		},
	}

	subsetCmd.Flags().StringVar(&assetDir, "asset-dir", "", "directory of <resource>.json column manifests (internal/archive.LocalDriver)")
	subsetCmd.Flags().StringVar(&asset, "asset", "icesat2", "asset identifier passed through to the archive driver")
	subsetCmd.Flags().StringVar(&resource, "resource", "", "granule resource name, e.g. ATL03_20200101000000_01234506_006_01.h5")
	subsetCmd.Flags().IntVar(&track, "track", 0, "0=all tracks, or 1/2/3 to restrict to one track pair")
	subsetCmd.Flags().IntVar(&surfaceType, "surface-type", 0, "signal_conf_ph surface-type column selector")
	subsetCmd.Flags().Float64Var(&extentLen, "extent-length", 20, "extent length in meters")
	subsetCmd.Flags().Float64Var(&extentStep, "extent-step", 20, "extent step in meters")
	subsetCmd.Flags().IntVar(&minPhotons, "min-photon-count", 10, "minimum accepted photons per extent")
	subsetCmd.Flags().Float64Var(&spread, "along-track-spread", 20, "minimum along-track spread in meters for a valid extent")
	subsetCmd.Flags().BoolVar(&distInSeg, "dist-in-seg", false, "count --extent-length and --extent-step in 20 m segments instead of meters")
	subsetCmd.Flags().BoolVar(&passInvalid, "pass-invalid", false, "emit extents that failed an invariant check instead of dropping them")
	subsetCmd.Flags().BoolVar(&atl08, "atl08", false, "join the ATL08 classification granule")
	subsetCmd.Flags().BoolVar(&yapc, "yapc", false, "run the YAPC photon-density scorer")
	subsetCmd.Flags().BoolVar(&phoreal, "phoreal", false, "run the PhoREAL extended classification pipeline (requires --atl08)")
	subsetCmd.Flags().IntVar(&yapcVersion, "yapc-version", int(parms.YapcVersionV3), "YAPC scorer version (2 or 3)")
	subsetCmd.Flags().Uint8Var(&yapcScore, "yapc-score", 0, "minimum accepted YAPC score")
	subsetCmd.Flags().IntVar(&yapcKnn, "yapc-knn", 0, "YAPC neighbor count (0 derives it from data, V2 only)")
	subsetCmd.Flags().IntVar(&yapcMinKnn, "yapc-min-knn", 5, "floor on the YAPC neighbor count")
	subsetCmd.Flags().Float64Var(&yapcWinH, "yapc-win-h", 6, "YAPC height window in meters")
	subsetCmd.Flags().Float64Var(&yapcWinX, "yapc-win-x", 15, "YAPC along-track window in meters")
	subsetCmd.Flags().BoolVar(&aboveClass, "above-classifier", false, "apply the ABoVE reassignment rule in PhoREAL")

	rootCmd.AddCommand(subsetCmd)
}
