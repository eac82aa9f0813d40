package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/creatures/console/internal/bridge"
	"github.com/creatures/console/internal/cache"
	"github.com/creatures/console/internal/lipsync"
	"github.com/creatures/console/internal/watch"
)

const watchCacheBytes = 16 << 20

var (
	watchExisting bool

	watchCmd = &cobra.Command{
		Use:   "watch [DIR]",
		Short: "Resample cue files as they appear in a directory",
		Long: paragraph(fmt.Sprintf("\n%s a directory for Rhubarb cue files and resample each one as soon as it is written. With --track each result replaces one axis of a stored track.",
			keyword("Watch"))),
		Example: paragraph("creature-console watch ~/creatures/cues\ncreature-console watch --track 6f1c... --axis 3"),
		Args:    cobra.MaximumNArgs(1),
		RunE:    runWatch,
	}
)

func init() {
	addSpliceFlags(watchCmd)
	watchCmd.Flags().BoolVarP(&watchExisting, "existing", "e", false, "also resample files already in the directory")
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := cfg.CueDir
	if len(args) == 1 {
		dir = args[0]
	}
	if dir == "" {
		return errors.New("no directory given and lipsync.cue_dir is not set")
	}
	if st, err := os.Stat(dir); err != nil {
		return fmt.Errorf("unable to watch %s: %w", dir, err)
	} else if !st.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	opts := []watch.Option{}
	if watchExisting {
		opts = append(opts, watch.WithExisting())
	}

	frames := cache.NewFrameCache(watchCacheBytes)
	b := bridge.New[string](watch.NewDirSource(dir, opts...),
		bridge.WithObserver(bridgeObserver("watch")),
		bridge.WithQueueObserver(queueObserver("watch")),
	)

	fmt.Printf("Watching %s %s\n", keyword(dir), faint("(ctrl+c to stop)"))
	err := b.Run(ctx, func(path string) error {
		return resampleWatched(cmd, frames, path)
	})

	s := frames.Stats()
	log.Info("Watch finished", "handled", b.Handled(), "cache_hits", s.Hits, "cache_misses", s.Misses)
	return err
}

// resampleWatched handles one changed cue file. Unreadable files are
// reported and skipped; only store failures end the watch.
func resampleWatched(cmd *cobra.Command, frames *cache.FrameCache, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		log.Warn("Skipping unreadable cue file", "path", path, "err", err)
		return nil
	}

	data, res, err := resampleContent(frames, content, cfg.MsPerFrame)
	if errors.Is(err, lipsync.ErrInvalidCueFile) {
		fmt.Fprintf(os.Stderr, "%s %v\n", keyword(path), err)
		return nil
	}
	if err != nil {
		return err
	}

	if data == nil {
		log.Debug("Reusing frames for unchanged cue file", "path", path)
		fmt.Printf("%s %s\n", keyword(filepath.Base(path)), faint("unchanged, reusing "+humanize.Comma(int64(len(res.Frames)))+" frames"))
	} else {
		printResampleSummary(os.Stdout, path, data, res)
	}

	if spliceTrack == "" {
		return nil
	}
	return spliceIntoTrack(cmd.Context(), spliceTrack, spliceAxis, spliceStart, res.Frames)
}

// resampleContent returns the frames for a cue file's content. Cue files
// already seen at this interval are served from frames without decoding;
// data is nil in that case.
func resampleContent(frames *cache.FrameCache, content []byte, msPerFrame int) (*lipsync.SoundData, lipsync.Result, error) {
	key := cache.Key(content, msPerFrame)
	if res, ok := frames.Get(key); ok {
		return nil, res, nil
	}

	data, err := lipsync.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, lipsync.Result{}, err
	}
	res, err := data.Resample(msPerFrame)
	if err != nil {
		return nil, lipsync.Result{}, err
	}
	if err := frames.Put(key, res); err != nil {
		log.Debug("Result not cached", "err", err)
	}
	return data, res, nil
}
