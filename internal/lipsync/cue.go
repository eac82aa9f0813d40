package lipsync

// DefaultIntensity is used for mouth shapes missing from the table.
const DefaultIntensity uint8 = 5

// MouthShape is a Rhubarb Lip Sync mouth shape label.
type MouthShape string

const (
	// ShapeA is the closed mouth used for "P", "B" and "M" sounds.
	ShapeA MouthShape = "A"

	// ShapeB is a slightly open mouth with clenched teeth.
	ShapeB MouthShape = "B"

	// ShapeC is an open mouth.
	ShapeC MouthShape = "C"

	// ShapeD is a wide open mouth.
	ShapeD MouthShape = "D"

	// ShapeE is a slightly rounded mouth.
	ShapeE MouthShape = "E"

	// ShapeF is a puckered mouth.
	ShapeF MouthShape = "F"

	// ShapeG is the upper teeth touching the lower lip ("F", "V").
	ShapeG MouthShape = "G"

	// ShapeH is the tongue raised behind the upper teeth ("L").
	ShapeH MouthShape = "H"

	// ShapeX is the idle, rest position.
	ShapeX MouthShape = "X"
)

// mouthIntensities maps each shape to how far the jaw servo opens.
var mouthIntensities = map[MouthShape]uint8{
	ShapeA: 5,
	ShapeB: 180,
	ShapeC: 240,
	ShapeD: 255,
	ShapeE: 50,
	ShapeF: 20,
	ShapeG: 30,
	ShapeH: 120,
	ShapeX: 0,
}

// Intensity returns the byte value for the shape, or DefaultIntensity if the
// shape is not recognized.
func (s MouthShape) Intensity() uint8 {
	if v, ok := mouthIntensities[s]; ok {
		return v
	}
	return DefaultIntensity
}

// Cue is one viseme interval. Start and End are in seconds from the start of
// the sound.
type Cue struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Value string  `json:"value"`
}

// Intensity returns the byte value the cue writes into each of its frames.
func (c Cue) Intensity() uint8 {
	return MouthShape(c.Value).Intensity()
}

// SoundMetadata identifies a sound and its total length.
type SoundMetadata struct {
	SoundFile string  `json:"soundFile"`
	Duration  float64 `json:"duration"`
}

// SoundData is a decoded lip-sync cue file.
type SoundData struct {
	Metadata  SoundMetadata `json:"metadata"`
	MouthCues []Cue         `json:"mouthCues"`
}
