package protocol

import (
	"fmt"
	"time"

	"github.com/fleetwire/gt06-gateway/pkg/bcd"
	"github.com/fleetwire/gt06-gateway/pkg/frame"
)

// NeighborCell is one of the six neighbor-cell entries in an LBS
// multi-base-station payload.
type NeighborCell struct {
	LAC    uint32
	CellID uint32
	RSSI   byte
}

// LBSMultiBase is the decoded payload of opcode 0x28. No acknowledgment is
// sent for this opcode.
type LBSMultiBase struct {
	Sequence uint16
	Time     time.Time

	MCC    uint32
	MNC    byte
	LAC    uint32
	CellID uint32
	RSSI   byte

	Neighbors [6]NeighborCell

	TimingAdvance byte
	Language      uint16
}

func (LBSMultiBase) isValue() {}

// lbsMultiBlockSize is the main-cell-plus-six-neighbors block shared by
// opcode 0x28 and the LBS portion of opcode 0x2C: MCC(2) MNC(1) LAC(2)
// CID(3) RSSI(1) = 9, then six neighbor cells of LAC(2) CID(3) RSSI(1) = 6
// bytes each.
const lbsMultiBlockSize = 9 + 6*6

// decodeLBSMultiBlock decodes the 45-byte main-cell-plus-neighbors block.
// b must hold at least lbsMultiBlockSize bytes.
func decodeLBSMultiBlock(b []byte) (mcc uint32, mnc byte, lac, cellID uint32, rssi byte, neighbors [6]NeighborCell) {
	main := b[0:9]
	mcc = be32(main[0:2])
	mnc = main[2]
	lac = be32(main[3:5])
	cellID = be32(main[5:8])
	rssi = main[8]

	cursor := 9
	for i := 0; i < 6; i++ {
		n := b[cursor : cursor+6]
		neighbors[i] = NeighborCell{
			LAC:    be32(n[0:2]),
			CellID: be32(n[2:5]),
			RSSI:   n[5],
		}
		cursor += 6
	}
	return
}

// ParseLBSMultiBase decodes a 0x28 payload: date(6), main cell (9 bytes),
// six neighbor cells (6 bytes each), timing-advance(1), language(2).
func ParseLBSMultiBase(body []byte, headerSize int) (LBSMultiBase, error) {
	start := frame.PayloadStart(headerSize)
	const size = 6 + lbsMultiBlockSize + 1 + 2
	if len(body) < start+size {
		return LBSMultiBase{}, fmt.Errorf("%w: lbs multi base", ErrShortPayload)
	}

	t, err := bcd.DateTime(body[start : start+6])
	if err != nil {
		return LBSMultiBase{}, err
	}

	cursor := start + 6
	out := LBSMultiBase{Sequence: frame.SequenceBE(body), Time: t}
	out.MCC, out.MNC, out.LAC, out.CellID, out.RSSI, out.Neighbors = decodeLBSMultiBlock(body[cursor : cursor+lbsMultiBlockSize])
	cursor += lbsMultiBlockSize

	out.TimingAdvance = body[cursor]
	cursor++
	out.Language = uint16(be32(body[cursor : cursor+2]))

	return out, nil
}
