package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/crossbake/crossbake/internal/config"
	"github.com/crossbake/crossbake/internal/dockerfile"
	"github.com/crossbake/crossbake/internal/matrix"
	"github.com/crossbake/crossbake/internal/printer"
	"github.com/crossbake/crossbake/internal/travis"
	"github.com/crossbake/crossbake/internal/upstream"
	"github.com/spf13/cobra"
)

var (
	generateConfigPath string
)

// upstreamConfig supplies the resolver and fetcher settings.
// Tests point it at local servers.
var upstreamConfig = upstream.DefaultConfig

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Regenerate Dockerfiles and CI jobs from the upstream repositories",
	Long: `Fetch both upstream repositories, compose one Dockerfile per version
pair, and rewrite the jobs section of the CI config with one build
stage per image group.

Steps:
  1. Resolve each upstream's branch to a commit SHA via the GitHub API
  2. Download and extract each source archive (cached under the repos dir)
  3. Compose derived Dockerfiles for every version pair under the output dir
  4. Compute the tag matrix from the composed files
  5. Replace the jobs section of the CI config with the generated stages

Snapshots already on disk are reused, so re-running without upstream
changes stays off the network and produces identical output.

Set GITHUB_TOKEN to authenticate API requests and avoid rate limits.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generateConfigPath, "config", "c", "crossbake.yml", "Path to the configuration file")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Phase 1: Load configuration
	cfg, err := config.Load(generateConfigPath)
	if err != nil {
		return printer.Error(
			"invalid configuration",
			err.Error(),
			[]string{
				"Run 'crossbake init' to scaffold a fresh crossbake.yml",
				fmt.Sprintf("Fix %s and try again", generateConfigPath),
			},
		)
	}

	// Phase 2: Resolve, fetch, and discover both upstreams
	resolver := upstream.NewResolver(upstreamConfig())
	fetcher := upstream.NewFetcher(upstreamConfig())

	definitions := make([][]string, len(cfg.Upstreams))
	for i, up := range cfg.Upstreams {
		printer.Step("Resolving %s (%s@%s)...\n", up.Name, up.Repo, up.Ref)

		commit, err := resolver.HeadCommit(ctx, up.Repo, up.Ref)
		if err != nil {
			return renderUpstreamError(up, err)
		}

		snapshotDir, err := fetcher.Fetch(ctx, up.Repo, commit, cfg.ReposDir)
		if err != nil {
			return renderUpstreamError(up, err)
		}

		src := upstream.Source{Name: up.Name, Repo: up.Repo, Commit: commit, Dir: snapshotDir}
		paths, err := src.Definitions(up.Variant)
		if err != nil {
			return printer.ErrorWithContext(
				fmt.Sprintf("no build definitions found for upstream '%s'", up.Name),
				err.Error(),
				map[string]string{
					"Snapshot": src.Dir,
					"Variant":  up.Variant,
				},
				[]string{"Check the 'variant' setting in crossbake.yml against the upstream's directory layout"},
			)
		}

		printer.Info("  %s: %d build definitions at %s\n", src.Name, len(paths), src.Commit)
		definitions[i] = paths
	}

	// Phase 3: Compose the cross-product of derived Dockerfiles
	composed := 0
	for _, srcA := range definitions[0] {
		for _, srcB := range definitions[1] {
			name := dockerfile.DerivedName(srcA, srcB)
			dst := filepath.Join(cfg.OutputDir, name, "Dockerfile")
			if err := dockerfile.Compose(dst, cfg.BaseImage, cfg.Command, srcA, srcB); err != nil {
				return fmt.Errorf("failed to compose %s: %w", dst, err)
			}
			composed++
		}
	}
	printer.Step("Composed %d Dockerfiles under %s/\n", composed, cfg.OutputDir)

	// Phase 4: Scan composed files and build the tag matrix
	envVars := [2]string{cfg.Upstreams[0].EnvVar, cfg.Upstreams[1].EnvVar}
	artifacts, err := dockerfile.ScanArtifacts(cfg.OutputDir, envVars)
	if err != nil {
		return printer.Error(
			"failed to scan generated Dockerfiles",
			err.Error(),
			[]string{"Remove the output directory and re-run 'crossbake generate'"},
		)
	}

	groups := matrix.Build(artifacts)

	// Phase 5: Rewrite the CI jobs section
	doc, err := travis.Load(cfg.CIFile)
	if err != nil {
		return printer.Error(
			fmt.Sprintf("failed to load %s", cfg.CIFile),
			err.Error(),
			[]string{"Run 'crossbake init' to create a seed CI config"},
		)
	}

	doc.SetBuildStages(travis.Stages(cfg.Image, cfg.PushBranch, groups))

	if err := doc.Write(cfg.CIFile); err != nil {
		return fmt.Errorf("failed to write %s: %w", cfg.CIFile, err)
	}

	tagCount := 0
	for _, group := range groups {
		tagCount += len(group.Tags)
	}
	printer.Success("Generated %d build stages (%d tags) in %s\n", len(groups), tagCount, cfg.CIFile)

	return nil
}

// renderUpstreamError distinguishes network failures, which deserve
// suggestions, from everything else.
func renderUpstreamError(up config.Upstream, err error) error {
	if upstream.IsUnavailable(err) {
		return printer.ErrorWithContext(
			fmt.Sprintf("upstream '%s' unavailable", up.Name),
			"Could not reach GitHub to resolve or download the upstream source.",
			map[string]string{
				"Repository": up.Repo,
				"Ref":        up.Ref,
			},
			[]string{
				"Check your network connection and retry",
				"Set GITHUB_TOKEN if you are hitting API rate limits",
			},
		)
	}
	return fmt.Errorf("upstream '%s': %w", up.Name, err)
}
