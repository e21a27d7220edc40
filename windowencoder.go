package vcdiff

// SourceWindow describes the source segment (external dictionary range,
// or an earlier range of the target stream for a VCD_TARGET copy window)
// a WindowEncoder's COPY addresses are resolved against.
type SourceWindow struct {
	Len      uint64
	Offset   uint64
	IsTarget bool // true selects VCD_TARGET instead of VCD_SOURCE
}

type pendingInst struct {
	info  InstInfo
	code1 byte
}

// WindowEncoder accumulates ADD/COPY/RUN instructions for a single
// VCDIFF window, packing them into the three section buffers and
// applying double-opcode packing (ChooseInstruction) as each new
// instruction arrives.
type WindowEncoder struct {
	dataSection []byte
	instSection []byte
	addrSection []byte

	acache *AddressCache

	pending *pendingInst

	targetLen     uint64
	sourceWindow  *SourceWindow
	emitChecksum  bool
}

// NewWindowEncoder creates an encoder for one window. source is nil for a
// window with neither VCD_SOURCE nor VCD_TARGET (the whole window is
// ADD/RUN only).
func NewWindowEncoder(source *SourceWindow, emitChecksum bool) *WindowEncoder {
	return &WindowEncoder{
		acache:       NewAddressCache(NearCacheSize, SameCacheSize),
		sourceWindow: source,
		emitChecksum: emitChecksum,
	}
}

// here is the current position in the combined source+target address
// space: the source segment length plus target bytes emitted so far.
func (w *WindowEncoder) here() uint64 {
	var sourceLen uint64
	if w.sourceWindow != nil {
		sourceLen = w.sourceWindow.Len
	}
	return sourceLen + w.targetLen
}

// Add appends an ADD instruction carrying data literally.
func (w *WindowEncoder) Add(data []byte) {
	if len(data) == 0 {
		return
	}
	w.dataSection = append(w.dataSection, data...)
	w.emitInstruction(InstInfo{Type: Add, Size: uint64(len(data))})
	w.targetLen += uint64(len(data))
}

// Copy appends a COPY instruction; addr is in the combined address space
// (see here). The address cache picks the cheapest address mode.
func (w *WindowEncoder) Copy(length, addr uint64) {
	if length == 0 {
		return
	}
	mode, encoded := w.acache.EncodeAddress(addr, w.here())
	w.addrSection = append(w.addrSection, encoded...)
	w.emitInstruction(InstInfo{Type: Copy, Size: length, Mode: mode})
	w.targetLen += length
}

// Run appends a RUN instruction of length repetitions of b.
func (w *WindowEncoder) Run(length uint64, b byte) {
	if length == 0 {
		return
	}
	w.dataSection = append(w.dataSection, b)
	w.emitInstruction(InstInfo{Type: Run, Size: length})
	w.targetLen += length
}

func (w *WindowEncoder) emitInstruction(inst InstInfo) {
	var prev *InstInfo
	if w.pending != nil {
		prev = &w.pending.info
	}
	chosen := ChooseInstruction(prev, inst)

	if chosen.Code2 != nil {
		w.pending = nil
		w.instSection = append(w.instSection, *chosen.Code2)
		return
	}

	w.flushPending()
	w.pending = &pendingInst{info: inst, code1: chosen.Code1}
}

func (w *WindowEncoder) flushPending() {
	if w.pending == nil {
		return
	}
	p := w.pending
	w.pending = nil
	w.emitOpcodeSingle(p.code1, p.info)
}

// emitOpcodeSingle writes code, followed by an explicit size varint if
// the code table entry for this opcode slot is size-polymorphic (size 0).
func (w *WindowEncoder) emitOpcodeSingle(code byte, inst InstInfo) {
	w.instSection = append(w.instSection, code)
	entry := DefaultCodeTable.Get(code, 0)
	if entry.Size == 0 {
		w.instSection = WriteVarint64(w.instSection, inst.Size)
	}
}

// Finish flushes any pending instruction, computes the checksum (if
// enabled) against targetData, and returns the completed Window ready
// for EncodeWindowHeader.
func (w *WindowEncoder) Finish(targetData []byte) Window {
	w.flushPending()

	window := Window{
		TargetWindowLength: w.targetLen,
		DataSection:        w.dataSection,
		InstructionSection: w.instSection,
		AddressSection:     w.addrSection,
	}

	if w.sourceWindow != nil {
		if w.sourceWindow.IsTarget {
			window.WinIndicator |= VCDTarget
		} else {
			window.WinIndicator |= VCDSource
		}
		window.SourceSegmentSize = w.sourceWindow.Len
		window.SourceSegmentPosition = w.sourceWindow.Offset
	}

	if w.emitChecksum {
		window.HasChecksum = true
		window.WinIndicator |= VCDAdler32
		window.Checksum = ComputeChecksum(1, targetData)
	}

	return window
}
