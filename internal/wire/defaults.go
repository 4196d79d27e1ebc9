package wire

// Synthetic defaults for wire fields the internal model does not track.
// These are placeholders, kept in one place so they are easy to find and
// replace once the model grows real values for them.
const (
	// PlaceholderFrameWidth and PlaceholderFrameHeight fill the mandatory
	// v1.3 video flow frame size.
	PlaceholderFrameWidth  int64 = 640
	PlaceholderFrameHeight int64 = 480

	// PlaceholderColorspace fills the mandatory v1.3 video flow colorspace.
	PlaceholderColorspace = "RGB"

	// PlaceholderVideoMediaType fills the mandatory v1.3 video flow media type.
	PlaceholderVideoMediaType = "video/h264"

	// PlaceholderAudioSampleRate fills the mandatory v1.3 audio flow sample rate.
	PlaceholderAudioSampleRate int64 = 44000

	// PlaceholderAudioMediaType fills the mandatory v1.3 audio flow media type.
	PlaceholderAudioMediaType = "audio/ogg"

	// PlaceholderDataMediaType fills the media type of v1.3 data flows.
	PlaceholderDataMediaType = "application/json"

	// PlaceholderClockName and PlaceholderClockRefType describe the single
	// internal clock every node payload advertises.
	PlaceholderClockName    = "clk0"
	PlaceholderClockRefType = "internal"
)

// PlaceholderAudioChannels is the stereo channel layout reported for audio
// sources until the model tracks real channel configurations.
func PlaceholderAudioChannels() []AudioChannel {
	return []AudioChannel{
		{Label: "L"},
		{Label: "R"},
	}
}
