package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/creatures/console/internal/store"
	"github.com/creatures/console/internal/track"
)

var (
	newTrackAxes   int
	newTrackFrames int

	tracksCmd = &cobra.Command{
		Use:     "tracks",
		Aliases: []string{"track"},
		Short:   "List animation tracks in the local store",
		Args:    cobra.NoArgs,
		RunE:    runTracksList,
	}

	tracksNewCmd = &cobra.Command{
		Use:   "new CREATURE ANIMATION",
		Short: "Create an empty track",
		Args:  cobra.ExactArgs(2),
		RunE:  runTracksNew,
	}

	tracksRmCmd = &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a track",
		Args:    cobra.ExactArgs(1),
		RunE:    runTracksRm,
	}
)

func init() {
	tracksNewCmd.Flags().IntVar(&newTrackAxes, "axes", 8, "number of axes")
	tracksNewCmd.Flags().IntVar(&newTrackFrames, "frames", 0, "initial number of frames")
	tracksCmd.AddCommand(tracksNewCmd, tracksRmCmd)
}

func runTracksList(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(cfg.StorePath)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	tracks, err := st.ListTracks(cmd.Context())
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		fmt.Println(faint("No tracks stored in " + st.Path()))
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATURE\tANIMATION\tAXES\tFRAMES\tSIZE\tUPDATED")
	for _, t := range tracks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			t.ID, t.CreatureID, t.AnimationID, t.Axes,
			humanize.Comma(int64(t.FrameCount)),
			humanize.Bytes(uint64(t.StoredBytes)), //nolint:gosec
			humanize.Time(t.UpdatedAt))
	}
	return tw.Flush()
}

func runTracksNew(cmd *cobra.Command, args []string) error {
	t, err := track.New(args[0], args[1], newTrackAxes, newTrackFrames)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.StorePath)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	if err := st.SaveTrack(cmd.Context(), t); err != nil {
		return err
	}
	fmt.Println(t.ID)
	return nil
}

func runTracksRm(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid track id %q: %w", args[0], err)
	}

	st, err := store.Open(cfg.StorePath)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	return st.DeleteTrack(cmd.Context(), id)
}

// spliceIntoTrack writes frames onto one axis of a stored track.
func spliceIntoTrack(ctx context.Context, rawID string, axis, start int, frames []byte) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid track id %q: %w", rawID, err)
	}

	st, err := store.Open(cfg.StorePath)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	return spliceWithStore(ctx, st, id, axis, start, frames)
}

func spliceWithStore(ctx context.Context, st *store.Store, id uuid.UUID, axis, start int, frames []byte) error {
	t, err := st.LoadTrack(ctx, id)
	if errors.Is(err, store.ErrTrackNotFound) {
		return fmt.Errorf("%w (create one with \"%s tracks new\")", err, appName)
	}
	if err != nil {
		return err
	}

	if err := t.ReplaceAxis(axis, start, frames); err != nil {
		return err
	}
	if err := st.SaveTrack(ctx, t); err != nil {
		return err
	}

	log.Info("Track updated", "track", t.ID, "axis", axis, "start", start, "frames", len(frames), "length", t.Len())
	fmt.Printf("Wrote %s frames to axis %d of %s\n", humanize.Comma(int64(len(frames))), axis, keyword(t.ID.String()))
	return nil
}
