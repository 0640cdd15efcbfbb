package protocol

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/fleetwire/gt06-gateway/pkg/crc"
	"github.com/fleetwire/gt06-gateway/pkg/frame"
)

// Error-check kinds for large-file-transfer chunks.
const (
	ErrCheckCRC byte = 0x00
	ErrCheckMD5 byte = 0x01
)

// LargeFileTransfer is the decoded payload of opcode 0x8D. Always
// long-framed (§4.3.12). The gateway acknowledges every chunk with
// BuildLargeFileTransferAck.
type LargeFileTransfer struct {
	Sequence uint16

	FileType      byte
	FileLength    uint32
	ErrCheckType  byte
	ErrCheck      []byte
	StartPosition uint32
	ChunkLength   uint16
	Content       []byte

	// FlagDateTime is set for FileType 0x00/0x02; FlagSerial is set for
	// FileType 0x01.
	HasFlagDateTime bool
	FlagDateTime    [6]byte
	HasFlagSerial   bool
	FlagSerial      uint16

	IsComplete bool
}

func (LargeFileTransfer) isValue() {}

// ParseLargeFileTransfer decodes a 0x8D payload.
func ParseLargeFileTransfer(body []byte, headerSize int) (LargeFileTransfer, error) {
	start := frame.PayloadStart(headerSize)
	if len(body) < start+1+4+1 {
		return LargeFileTransfer{}, fmt.Errorf("%w: file transfer header", ErrShortPayload)
	}

	fileType := body[start]
	fileLength := be32(body[start+1 : start+5])
	errCheckType := body[start+5]

	errCheckSize := 2
	if errCheckType == ErrCheckMD5 {
		errCheckSize = 16
	}

	cursor := start + 6
	if len(body) < cursor+errCheckSize+4+2 {
		return LargeFileTransfer{}, fmt.Errorf("%w: file transfer error-check", ErrShortPayload)
	}
	errCheck := append([]byte(nil), body[cursor:cursor+errCheckSize]...)
	cursor += errCheckSize

	startPosition := be32(body[cursor : cursor+4])
	cursor += 4
	chunkLength := uint16(be32(body[cursor : cursor+2]))
	cursor += 2

	if len(body) < cursor+int(chunkLength) {
		return LargeFileTransfer{}, fmt.Errorf("%w: file transfer content", ErrShortPayload)
	}
	content := append([]byte(nil), body[cursor:cursor+int(chunkLength)]...)
	cursor += int(chunkLength)

	out := LargeFileTransfer{
		Sequence:      frame.SequenceBE(body),
		FileType:      fileType,
		FileLength:    fileLength,
		ErrCheckType:  errCheckType,
		ErrCheck:      errCheck,
		StartPosition: startPosition,
		ChunkLength:   chunkLength,
		Content:       content,
		IsComplete:    uint64(startPosition)+uint64(chunkLength) >= uint64(fileLength),
	}

	switch fileType {
	case 0x00, 0x02:
		if len(body) >= cursor+6 {
			copy(out.FlagDateTime[:], body[cursor:cursor+6])
			out.HasFlagDateTime = true
		}
	case 0x01:
		if len(body) >= cursor+2 {
			out.FlagSerial = uint16(be32(body[cursor : cursor+2]))
			out.HasFlagSerial = true
		}
	}

	return out, nil
}

// VerifyChunk reports whether a file-transfer chunk's content matches its
// declared error-check value: CRC-ITU for ErrCheckCRC, case-insensitive
// RFC 1321 MD5 hex for ErrCheckMD5.
func VerifyChunk(content []byte, errCheckType byte, errCheck []byte) bool {
	switch errCheckType {
	case ErrCheckCRC:
		if len(errCheck) != 2 {
			return false
		}
		want := uint16(errCheck[0])<<8 | uint16(errCheck[1])
		return crc.Checksum(content) == want
	case ErrCheckMD5:
		sum := md5.Sum(content)
		return strings.EqualFold(hex.EncodeToString(sum[:]), hex.EncodeToString(errCheck))
	default:
		return false
	}
}
