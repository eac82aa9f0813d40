package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/creatures/console/internal/lipsync"
)

var (
	spliceTrack string
	spliceAxis  int
	spliceStart int
	printFrames bool

	lipsyncCmd = &cobra.Command{
		Use:   "lipsync FILE",
		Short: "Resample a Rhubarb cue file into animation frames",
		Long: paragraph(fmt.Sprintf("\n%s a Rhubarb Lip Sync JSON file into one mouth intensity per animation frame. With --track the frames replace one axis of a stored track.",
			keyword("Resample"))),
		Example: paragraph("creature-console lipsync hello.json\ncreature-console lipsync hello.json --track 6f1c... --axis 3"),
		Args:    cobra.ExactArgs(1),
		RunE:    runLipsync,
	}
)

func init() {
	addSpliceFlags(lipsyncCmd)
	lipsyncCmd.Flags().BoolVarP(&printFrames, "frames", "f", false, "print every frame value")
}

func addSpliceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&spliceTrack, "track", "t", "", "stored track to write the frames into")
	cmd.Flags().IntVar(&spliceAxis, "axis", 0, "axis of the track that drives the mouth")
	cmd.Flags().IntVar(&spliceStart, "start", 0, "first track frame to overwrite")
}

func runLipsync(cmd *cobra.Command, args []string) error {
	data, err := lipsync.LoadFile(args[0])
	if err != nil {
		return err
	}

	res, err := data.Resample(cfg.MsPerFrame)
	if err != nil {
		return err
	}

	printResampleSummary(os.Stdout, args[0], data, res)
	if printFrames {
		printFrameValues(os.Stdout, res.Frames)
	}

	if spliceTrack == "" {
		return nil
	}
	return spliceIntoTrack(cmd.Context(), spliceTrack, spliceAxis, spliceStart, res.Frames)
}

func printResampleSummary(w io.Writer, path string, data *lipsync.SoundData, res lipsync.Result) {
	sound := data.Metadata.SoundFile
	if sound == "" {
		sound = "(no sound file)"
	}
	dur := time.Duration(data.Metadata.Duration * float64(time.Second)).Round(time.Millisecond)

	fmt.Fprintf(w, "%s %s\n", keyword(filepath.Base(path)), faint(sound))
	fmt.Fprintf(w, "  %s cues over %s\n", humanize.Comma(int64(len(data.MouthCues))), dur)
	fmt.Fprintf(w, "  %s frames at %dms (%s)\n",
		humanize.Comma(int64(len(res.Frames))), res.MsPerFrame, humanize.Bytes(uint64(len(res.Frames))))
	if res.Clamped > 0 {
		fmt.Fprintf(w, "  %s %s\n", humanize.Comma(int64(res.Clamped)), faint("cues ran past the end and were cut"))
	}
	if res.Empty > 0 {
		fmt.Fprintf(w, "  %s %s\n", humanize.Comma(int64(res.Empty)), faint("cues were shorter than one frame"))
	}
}

func printFrameValues(w io.Writer, frames []byte) {
	const perLine = 20
	var b strings.Builder
	for i, v := range frames {
		if i%perLine == 0 {
			if i > 0 {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "%6d:", i)
		}
		fmt.Fprintf(&b, " %3d", v)
	}
	if len(frames) > 0 {
		b.WriteByte('\n')
	}
	_, _ = io.WriteString(w, b.String())
}
