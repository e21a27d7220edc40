package vcdiff

import (
	"fmt"
	"io"
	"runtime"

	"github.com/xdelta-go/vcdiff/internal/match"
	"github.com/xdelta-go/vcdiff/internal/secondary"
)

func numCPU() int {
	if n := runtime.GOMAXPROCS(0); n > 0 {
		return n
	}
	return 1
}

// EncodeOptions configures Encoder and the EncodeAll/EncodeParallel
// convenience functions.
type EncodeOptions struct {
	// Level is a 0-9 compression level, mapped to a match.Config via
	// match.ConfigForLevel. Level 0 disables matching entirely: every
	// window is emitted as a single ADD ("store only").
	Level uint32
	// WindowSize is the maximum number of target bytes buffered into one
	// VCDIFF window before it is encoded and flushed.
	WindowSize int
	// Checksum requests a VCD_ADLER32 checksum on every window.
	Checksum bool
	// Secondary, if non-nil, is applied to each window's three sections
	// after VCDIFF encoding.
	Secondary secondary.Backend
}

// DefaultEncodeOptions returns the same defaults xdelta3 itself defaults
// to: level 6, an 8 MiB window, and checksums on.
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{
		Level:      6,
		WindowSize: match.DefaultWinSize,
		Checksum:   true,
	}
}

// Encoder is a streaming VCDIFF encoder: the source is indexed once
// up front, target data is fed in arbitrarily-sized chunks via Write,
// and each window completed along the way is encoded and flushed
// immediately, so memory use stays bounded by one window's worth of
// target data.
type Encoder struct {
	w    io.Writer
	opts EncodeOptions

	source []byte
	engine *match.Engine

	headerWritten bool

	buffer         []byte
	bytesIn        uint64
	windowsWritten uint64
}

// NewEncoder creates a streaming encoder writing to w, diffing against
// source (which may be nil/empty for a sourceless delta).
func NewEncoder(w io.Writer, source []byte, opts EncodeOptions) *Encoder {
	if opts.WindowSize <= 0 {
		opts.WindowSize = match.DefaultWinSize
	}

	var engine *match.Engine
	if opts.Level > 0 {
		cfg := match.ConfigForLevel(opts.Level)
		winsize := opts.WindowSize
		if winsize < 64 {
			winsize = 64
		}
		engine = match.NewEngine(cfg, uint64(len(source)), winsize)
		if len(source) > 0 {
			engine.IndexSource(source)
		}
	}

	return &Encoder{
		w:      w,
		opts:   opts,
		source: source,
		engine: engine,
	}
}

// Write feeds target data to the encoder. It implements io.Writer: on
// success it consumes the whole of data and returns len(data), nil; if
// encoding or writing a completed window fails it returns 0 and the error.
func (e *Encoder) Write(data []byte) (int, error) {
	if err := e.writeTarget(data); err != nil {
		return 0, err
	}
	return len(data), nil
}

func (e *Encoder) writeTarget(data []byte) error {
	e.bytesIn += uint64(len(data))
	offset := 0

	if len(e.buffer) > 0 {
		need := e.opts.WindowSize - len(e.buffer)
		take := need
		if take > len(data) {
			take = len(data)
		}
		e.buffer = append(e.buffer, data[:take]...)
		offset += take

		if len(e.buffer) == e.opts.WindowSize {
			if err := e.encodeWindow(e.buffer); err != nil {
				return err
			}
			e.buffer = e.buffer[:0]
		}
	}

	for offset+e.opts.WindowSize <= len(data) {
		end := offset + e.opts.WindowSize
		if err := e.encodeWindow(data[offset:end]); err != nil {
			return err
		}
		offset = end
	}

	if offset < len(data) {
		e.buffer = append(e.buffer, data[offset:]...)
	}

	return nil
}

// Finish flushes any buffered trailing data, emitting at least one empty
// window if no target bytes were ever written, and returns the total
// number of windows written.
func (e *Encoder) Finish() (uint64, error) {
	if len(e.buffer) > 0 {
		remaining := e.buffer
		e.buffer = nil
		if err := e.encodeWindow(remaining); err != nil {
			return 0, err
		}
	}

	if e.windowsWritten == 0 {
		if err := e.encodeWindow(nil); err != nil {
			return 0, err
		}
	}

	return e.windowsWritten, nil
}

// BytesIn reports how many target bytes have been fed in so far.
func (e *Encoder) BytesIn() uint64 { return e.bytesIn }

// WindowsWritten reports how many windows have been flushed so far.
func (e *Encoder) WindowsWritten() uint64 { return e.windowsWritten }

func (e *Encoder) encodeWindow(target []byte) error {
	var sourceWin *SourceWindow
	if len(e.source) > 0 {
		sourceWin = &SourceWindow{Len: uint64(len(e.source))}
	}

	var instructions []match.Inst
	switch {
	case e.opts.Level == 0:
		if len(target) > 0 {
			instructions = []match.Inst{{Type: match.InstAdd, Len: uint64(len(target))}}
		}
	default:
		raw := e.engine.FindMatches(target, e.source)
		instructions = optimizeInstructions(raw, target)
	}

	we := NewWindowEncoder(sourceWin, e.opts.Checksum)
	emitInstructions(we, target, instructions)
	window := we.Finish(target)

	if e.opts.Secondary != nil {
		data, inst, addr, deltaInd, err := secondary.CompressSections(
			e.opts.Secondary, window.DataSection, window.InstructionSection, window.AddressSection)
		if err != nil {
			return &EncodeError{Err: err}
		}
		window.DataSection = data
		window.InstructionSection = inst
		window.AddressSection = addr
		window.DeltaIndicator = deltaInd
	}

	if err := e.writeHeaderOnce(); err != nil {
		return err
	}

	buf := EncodeWindowHeader(nil, window)
	if _, err := e.w.Write(buf); err != nil {
		return &EncodeError{Err: err}
	}

	e.windowsWritten++
	return nil
}

func (e *Encoder) writeHeaderOnce() error {
	if e.headerWritten {
		return nil
	}
	e.headerWritten = true

	header := Header{Magic: VCDIFFMagic, Version: VCDIFFVersion}
	if e.opts.Secondary != nil {
		header.Indicator |= VCDDecompress
		header.SecondaryID = e.opts.Secondary.ID()
	}

	buf := EncodeFileHeader(nil, header)
	if _, err := e.w.Write(buf); err != nil {
		return &EncodeError{Err: err}
	}
	return nil
}

func emitInstructions(we *WindowEncoder, target []byte, instructions []match.Inst) {
	targetPos := 0
	for _, inst := range instructions {
		length := int(inst.Len)
		switch inst.Type {
		case match.InstAdd:
			we.Add(target[targetPos : targetPos+length])
		case match.InstCopy:
			we.Copy(inst.Len, inst.Addr)
		case match.InstRun:
			we.Run(inst.Len, target[targetPos])
		}
		targetPos += length
	}
}

// EncodeAll diffs the whole of target against source in one call, using
// opts (window size is capped to len(target) to avoid over-sizing hash
// tables for small inputs).
func EncodeAll(source, target []byte, opts EncodeOptions) ([]byte, error) {
	if opts.WindowSize <= 0 || len(target) < opts.WindowSize {
		if opts.WindowSize = len(target); opts.WindowSize < 64 {
			opts.WindowSize = 64
		}
	}

	var out []byte
	buf := &byteSliceWriter{&out}
	enc := NewEncoder(buf, source, opts)
	if _, err := enc.Write(target); err != nil {
		return nil, err
	}
	if _, err := enc.Finish(); err != nil {
		return nil, err
	}
	return out, nil
}

type byteSliceWriter struct{ buf *[]byte }

func (b *byteSliceWriter) Write(p []byte) (int, error) {
	*b.buf = append(*b.buf, p...)
	return len(p), nil
}

// EncodeParallel diffs target against source the same way EncodeAll does,
// but matches each window independently and concurrently; because windows
// no longer share match-engine state (in particular match.Engine's
// MATCH_TARGET carry-over), instruction choices — and so byte-for-byte
// output — can differ from EncodeAll, though both decode to the same
// target. Output validity is unaffected.
func EncodeParallel(source, target []byte, opts EncodeOptions) ([]byte, error) {
	if opts.WindowSize <= 0 || len(target) < opts.WindowSize {
		if opts.WindowSize = len(target); opts.WindowSize < 64 {
			opts.WindowSize = 64
		}
	}
	if len(target) == 0 {
		return EncodeAll(source, target, opts)
	}

	winsize := opts.WindowSize
	var sourceWin *SourceWindow
	if len(source) > 0 {
		sourceWin = &SourceWindow{Len: uint64(len(source))}
	}

	numChunks := (len(target) + winsize - 1) / winsize
	encoded := make([][]byte, numChunks)
	errs := make([]error, numChunks)

	type job struct {
		idx   int
		chunk []byte
	}
	jobs := make(chan job)
	results := make(chan struct{})

	worker := func() {
		for j := range jobs {
			encoded[j.idx], errs[j.idx] = encodeChunk(j.chunk, source, sourceWin, opts)
		}
		results <- struct{}{}
	}

	workers := numCPU()
	if workers > numChunks {
		workers = numChunks
	}
	for i := 0; i < workers; i++ {
		go worker()
	}
	for i := 0; i < numChunks; i++ {
		start := i * winsize
		end := start + winsize
		if end > len(target) {
			end = len(target)
		}
		jobs <- job{idx: i, chunk: target[start:end]}
	}
	close(jobs)
	for i := 0; i < workers; i++ {
		<-results
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	var out []byte
	header := Header{Magic: VCDIFFMagic, Version: VCDIFFVersion}
	if opts.Secondary != nil {
		header.Indicator |= VCDDecompress
		header.SecondaryID = opts.Secondary.ID()
	}
	out = EncodeFileHeader(out, header)
	for _, w := range encoded {
		out = append(out, w...)
	}
	return out, nil
}

func encodeChunk(chunk, source []byte, sourceWin *SourceWindow, opts EncodeOptions) ([]byte, error) {
	var instructions []match.Inst
	if opts.Level == 0 {
		if len(chunk) > 0 {
			instructions = []match.Inst{{Type: match.InstAdd, Len: uint64(len(chunk))}}
		}
	} else {
		cfg := match.ConfigForLevel(opts.Level)
		winsize := len(chunk)
		if winsize < 64 {
			winsize = 64
		}
		engine := match.NewEngine(cfg, uint64(len(source)), winsize)
		if len(source) > 0 {
			engine.IndexSource(source)
		}
		raw := engine.FindMatches(chunk, source)
		instructions = optimizeInstructions(raw, chunk)
	}

	we := NewWindowEncoder(sourceWin, opts.Checksum)
	emitInstructions(we, chunk, instructions)
	window := we.Finish(chunk)

	if opts.Secondary != nil {
		data, inst, addr, deltaInd, err := secondary.CompressSections(
			opts.Secondary, window.DataSection, window.InstructionSection, window.AddressSection)
		if err != nil {
			return nil, &EncodeError{Err: err}
		}
		window.DataSection = data
		window.InstructionSection = inst
		window.AddressSection = addr
		window.DeltaIndicator = deltaInd
	}

	return EncodeWindowHeader(nil, window), nil
}

// StreamDecoder decodes a VCDIFF delta read from r and writes the
// reconstructed target to w. Run reads the whole delta into memory before
// decoding, and writes the whole target to w in one call after every
// window has decoded; nothing is written to w window by window.
type StreamDecoder struct {
	r      io.Reader
	w      io.Writer
	source SourceData
}

// NewStreamDecoder creates a streaming decoder reading delta bytes from r
// and writing the reconstructed target to w.
func NewStreamDecoder(r io.Reader, w io.Writer, source []byte) *StreamDecoder {
	var sd SourceData
	if source != nil {
		sd = ByteSource(source)
	}
	return &StreamDecoder{r: r, w: w, source: sd}
}

// Run decodes the entire delta, returning the number of target bytes
// written.
func (d *StreamDecoder) Run() (uint64, error) {
	delta, err := io.ReadAll(d.r)
	if err != nil {
		return 0, fmt.Errorf("%w: reading delta stream: %v", ErrIo, err)
	}

	target, err := (&decoder{source: d.source}).Decode(delta)
	if err != nil {
		return 0, err
	}

	n, err := d.w.Write(target)
	if err != nil {
		return uint64(n), fmt.Errorf("%w: writing target stream: %v", ErrIo, err)
	}
	return uint64(n), nil
}
