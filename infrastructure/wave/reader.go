// Package wave decodes WAV files into mono amplitude signals.
package wave

import (
	"context"
	"math"
	"os"

	"github.com/go-audio/wav"

	"github.com/Skryldev/bark-lab/domain/model"
	pkgerrors "github.com/Skryldev/bark-lab/pkg/errors"
)

// Reader implements ports.SignalReader for WAV input
type Reader struct{}

// NewReader creates a WAV signal reader
func NewReader() *Reader {
	return &Reader{}
}

// ReadSignal decodes a WAV file into absolute amplitude values. Stereo
// input is rejected before any samples are read: the analysis is defined
// over a single channel only.
func (r *Reader) ReadSignal(ctx context.Context, path string) (*model.Signal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, pkgerrors.NewIOError(path, "failed to open waveform file", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, pkgerrors.NewDecodeError(path, "not a valid WAV file", nil)
	}
	if decoder.NumChans != 1 {
		return nil, pkgerrors.NewChannelLayoutError(int(decoder.NumChans))
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, pkgerrors.NewDecodeError(path, "failed to read PCM buffer", err)
	}
	if len(buf.Data) == 0 {
		return nil, pkgerrors.NewEmptySignalError()
	}

	// Volume analysis only cares about magnitude, not phase.
	data := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		data[i] = math.Abs(float64(v))
	}

	return &model.Signal{
		Data:       data,
		SampleRate: buf.Format.SampleRate,
	}, nil
}
