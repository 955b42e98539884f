// cli.go
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// newLogger creates a logger with "HH:MM:SS.ms" timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
		Prefix:          "icicle",
	})
}

type rootOptions struct {
	verbose    bool
	configPath string
}

// setup loads the config and builds a logger that writes to w, or to the
// configured log file when w is nil.
func (o *rootOptions) setup(w io.Writer) (Config, *log.Logger, func(), error) {
	boot := newLogger(os.Stderr, log.InfoLevel)
	cfg, err := loadConfig(o.configPath, boot)
	if err != nil {
		return Config{}, nil, nil, err
	}

	level, _ := log.ParseLevel(cfg.Log.Level)
	if o.verbose {
		level = log.DebugLevel
	}

	closer := func() {}
	if w == nil {
		w = io.Discard
		if cfg.Log.File != "" {
			f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return Config{}, nil, nil, fmt.Errorf("open log file: %w", err)
			}
			w = f
			closer = func() { f.Close() }
		}
	}
	return cfg, newLogger(w, level), closer, nil
}

func Execute() error {
	return newRootCmd().ExecuteContext(context.Background())
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "icicle",
		Short:        "icicle shows pprof call trees as animated partition diagrams",
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a TOML config file")

	root.AddCommand(newViewCmd(opts))
	root.AddCommand(newRenderCmd(opts))
	return root
}

func newViewCmd(opts *rootOptions) *cobra.Command {
	var (
		sampleType string
		module     string
		refresh    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "view <profile.pprof | http://host/debug/pprof/profile>...",
		Short: "Browse one or more profiles interactively",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closeLog, err := opts.setup(nil)
			if err != nil {
				return err
			}
			defer closeLog()
			applyViewFlags(cmd, &cfg, sampleType, module, refresh)

			db := NewDatabase(logger)
			var sources []profileSource
			for _, arg := range args {
				src, err := loadSource(cmd.Context(), db, arg, cfg.View)
				if err != nil {
					return err
				}
				sources = append(sources, src)
			}

			m := newModel(db, sources, cfg, logger)
			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("error running program: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sampleType, "sample", "", "preferred sample type (e.g. cpu, alloc_space)")
	cmd.Flags().StringVar(&module, "module", "", "module path whose functions are highlighted")
	cmd.Flags().DurationVar(&refresh, "refresh", 0, "refetch interval for URL profiles")
	return cmd
}

func applyViewFlags(cmd *cobra.Command, cfg *Config, sampleType, module string, refresh time.Duration) {
	if cmd.Flags().Changed("sample") {
		cfg.View.SampleType = sampleType
	}
	if cmd.Flags().Changed("module") {
		cfg.View.Module = module
	}
	if cmd.Flags().Changed("refresh") && refresh > 0 {
		cfg.Live.RefreshInterval = duration{refresh}
	}
}

func newRenderCmd(opts *rootOptions) *cobra.Command {
	var (
		output     string
		nodeName   string
		sampleType string
		width      int
		height     int
	)

	cmd := &cobra.Command{
		Use:   "render <profile.pprof | url>",
		Short: "Render a profile to a PDF, SVG or PNG file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closeLog, err := opts.setup(os.Stderr)
			if err != nil {
				return err
			}
			defer closeLog()
			applyViewFlags(cmd, &cfg, sampleType, "", 0)
			if cmd.Flags().Changed("width") {
				cfg.Export.Width = width
			}
			if cmd.Flags().Changed("height") {
				cfg.Export.Height = height
			}

			format, err := formatFromPath(output)
			if err != nil {
				return err
			}

			db := NewDatabase(logger)
			src, err := loadSource(cmd.Context(), db, args[0], cfg.View)
			if err != nil {
				return err
			}

			nodeKey := 0
			if nodeName != "" {
				node := findNodeByName(db.Profile(src.profileKey), nodeName)
				if node == nil {
					return fmt.Errorf("no node named %q in %s", nodeName, args[0])
				}
				nodeKey = node.NodeKey()
			}

			view := NewPartitionView(logger, cfg.Animation.Duration.Duration)
			view.SetDatabase(db)
			view.SetActiveNode(src.profileKey, nodeKey)
			frame := view.Paint(cfg.Export.Width, cfg.Export.Height)

			if err := writeFrame(output, frame, format); err != nil {
				return err
			}
			logger.Info("rendered", "file", output, "bands", len(frame.Bands))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "icicle.pdf", "output file (.pdf, .svg or .png)")
	cmd.Flags().StringVar(&nodeName, "node", "", "frame the first node with this function name")
	cmd.Flags().StringVar(&sampleType, "sample", "", "preferred sample type (e.g. cpu, alloc_space)")
	cmd.Flags().IntVar(&width, "width", 0, "output width in pixels")
	cmd.Flags().IntVar(&height, "height", 0, "output height in pixels")
	return cmd
}

// writeFrame exports frame to path. A failed export leaves no file behind.
func writeFrame(path string, frame Frame, format exportFormat) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
		if err != nil {
			os.Remove(path)
		}
	}()
	return exportFrame(f, frame, format)
}

// profileSource remembers where a profile came from so live sources can be
// refetched.
type profileSource struct {
	profileKey int
	location   string
	live       bool
	sampleType string
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// openProfile opens a pprof file or fetches it over HTTP.
func openProfile(ctx context.Context, location string) (io.ReadCloser, error) {
	if !isURL(location) {
		f, err := os.Open(location)
		if err != nil {
			return nil, fmt.Errorf("open profile: %w", err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("bad status: %s: %s", resp.Status, string(body))
	}
	return resp.Body, nil
}

// Seconds net/http/pprof collects for /profile and /trace when the request
// does not say.
const defaultProfileSeconds = 30

// fetchTimeout bounds one refetch of location: the collection time the
// endpoint will spend, from its "seconds" parameter, plus slack of one
// refresh interval.
func fetchTimeout(location string, slack time.Duration) time.Duration {
	u, err := url.Parse(location)
	if err != nil {
		return slack
	}

	seconds := 0
	if v := u.Query().Get("seconds"); v != "" {
		seconds, _ = strconv.Atoi(v)
	} else if strings.HasSuffix(u.Path, "/profile") || strings.HasSuffix(u.Path, "/trace") {
		seconds = defaultProfileSeconds
	}
	return time.Duration(max(seconds, 0))*time.Second + slack
}

func fetchSnapshot(ctx context.Context, location string, view ViewConfig) (*Snapshot, error) {
	r, err := openProfile(ctx, location)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	snap, err := ParseProfile(r, view.SampleType)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", location, err)
	}
	annotateProjectCode(snap.Root, view.Module)
	return snap, nil
}

// loadSource reads a profile and merges it into db as a new profile.
func loadSource(ctx context.Context, db *Database, location string, view ViewConfig) (profileSource, error) {
	snap, err := fetchSnapshot(ctx, location, view)
	if err != nil {
		return profileSource{}, err
	}

	name := location
	if !isURL(location) {
		name = filepath.Base(location)
	}
	key := db.CreateProfile(name, snap.Unit)
	if err := db.MergeSnapshot(key, snap, time.Now()); err != nil {
		return profileSource{}, err
	}
	return profileSource{
		profileKey: key,
		location:   location,
		live:       isURL(location),
		sampleType: snap.SampleType,
	}, nil
}

// findNodeByName returns the first node, depth first, with the given name.
func findNodeByName(p *Profile, name string) *ProfileNode {
	var found *ProfileNode
	p.Walk(func(n *ProfileNode, _ int) {
		if found == nil && n.Name() == name {
			found = n
		}
	})
	return found
}
