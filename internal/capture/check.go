package capture

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"hash/fnv"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"
)

// ErrCameraUnavailable reports that no usable frame could be obtained,
// whether the camera was denied or the frame failed to decode.
var ErrCameraUnavailable = errors.New("camera access denied or unavailable")

// CheckScan is the result of capturing and scanning a check image.
// The OCR fields come from a simulated recognition pass; Confidence
// tells the caller how much to trust them.
type CheckScan struct {
	ImageData     string  `json:"image_data"` // JPEG data URL
	RoutingNumber string  `json:"routing_number"`
	AccountNumber string  `json:"account_number"`
	Amount        string  `json:"amount"`
	Confidence    float64 `json:"confidence"`
}

// CheckCapture encodes captured frames and runs the recognition pass.
type CheckCapture struct {
	quality int
}

func NewCheckCapture() *CheckCapture {
	return &CheckCapture{quality: 85}
}

// CaptureFrame encodes a decoded frame and scans it. A nil frame means
// the camera produced nothing and maps to ErrCameraUnavailable.
func (c *CheckCapture) CaptureFrame(frame image.Image) (*CheckScan, error) {
	if frame == nil {
		return nil, ErrCameraUnavailable
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: c.quality}); err != nil {
		return nil, fmt.Errorf("encode check frame: %w", err)
	}
	encoded := buf.Bytes()

	scan := c.recognize(encoded)
	scan.ImageData = "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(encoded)
	return scan, nil
}

// CaptureEncoded decodes raw frame bytes (PNG, JPEG, or GIF) and scans
// them. Undecodable bytes map to ErrCameraUnavailable.
func (c *CheckCapture) CaptureEncoded(data []byte) (*CheckScan, error) {
	frame, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
	}
	return c.CaptureFrame(frame)
}

// recognize is the simulated OCR pass. It derives stable digits from
// the frame bytes so repeated scans of the same image agree, and
// reports a fixed mid-high confidence. A real MICR reader slots in
// behind the same result shape.
func (c *CheckCapture) recognize(encoded []byte) *CheckScan {
	h := fnv.New64a()
	h.Write(encoded)
	seed := h.Sum64()
	return &CheckScan{
		RoutingNumber: digits(seed, 9),
		AccountNumber: digits(seed>>9, 10),
		Amount:        fmt.Sprintf("%d.%02d", seed%5000, (seed>>32)%100),
		Confidence:    0.87,
	}
}

func digits(seed uint64, n int) string {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte('0' + seed%10)
		seed = seed/10 + 7
	}
	return string(out)
}
