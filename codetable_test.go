package vcdiff

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultCodeTableRunEntry(t *testing.T) {
	inst := DefaultCodeTable.Get(0, 0)
	require.Equal(t, Run, inst.Type)
	require.Equal(t, byte(0), inst.Size)
}

func TestDefaultCodeTableAddEntries(t *testing.T) {
	for size := byte(0); size < 18; size++ {
		inst := DefaultCodeTable.Get(1+size, 0)
		require.Equal(t, Add, inst.Type)
		require.Equal(t, size, inst.Size)
	}
}

func TestDefaultCodeTableCopyEntriesCoverAllModes(t *testing.T) {
	code := byte(19)
	for mode := byte(0); mode < 9; mode++ {
		inst := DefaultCodeTable.Get(code, 0)
		require.Equal(t, Copy, inst.Type)
		require.Equal(t, mode, inst.Mode)
		code += 16
	}
}

func TestChooseInstructionRunAlwaysCode0(t *testing.T) {
	chosen := ChooseInstruction(nil, InstInfo{Type: Run, Size: 100})
	require.Equal(t, byte(0), chosen.Code1)
	require.Nil(t, chosen.Code2)
}

func TestChooseInstructionSmallAddPicksSizedSlot(t *testing.T) {
	chosen := ChooseInstruction(nil, InstInfo{Type: Add, Size: 5})
	require.Equal(t, byte(6), chosen.Code1) // 1 + 5
	require.Nil(t, chosen.Code2)
}

func TestChooseInstructionLargeAddUsesPolymorphicSlot(t *testing.T) {
	chosen := ChooseInstruction(nil, InstInfo{Type: Add, Size: 200})
	require.Equal(t, byte(1), chosen.Code1)
	require.Nil(t, chosen.Code2)
}

func TestChooseInstructionAddAfterCopyCombinesIntoDoubleOpcode(t *testing.T) {
	prev := InstInfo{Type: Copy, Size: 4, Mode: 0}
	chosen := ChooseInstruction(&prev, InstInfo{Type: Add, Size: 1})
	require.NotNil(t, chosen.Code2, "ADD(1) right after COPY(4, mode 0) should pack into a double opcode")
	require.Equal(t, byte(247), *chosen.Code2)
}

func TestChooseInstructionCopyAfterAddCombinesIntoDoubleOpcode(t *testing.T) {
	prev := InstInfo{Type: Add, Size: 1}
	chosen := ChooseInstruction(&prev, InstInfo{Type: Copy, Size: 4, Mode: 0})
	require.NotNil(t, chosen.Code2)
}

func TestChooseInstructionNoCombineWhenPrevIsNotAddOrCopy(t *testing.T) {
	prev := InstInfo{Type: Run, Size: 10}
	chosen := ChooseInstruction(&prev, InstInfo{Type: Add, Size: 1})
	require.Nil(t, chosen.Code2)
}
