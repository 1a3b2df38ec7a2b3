package exchangebooth

import "fmt"

type InstructionType uint8

const (
	InstructionTypeInitialize InstructionType = iota
	InstructionTypeExchangeOut
	InstructionTypeExchangeIn
)

const (
	InstructionTypeSize = 1
	AmountSize          = 4
)

func (t InstructionType) String() string {
	switch t {
	case InstructionTypeInitialize:
		return "initialize"
	case InstructionTypeExchangeOut:
		return "exchange_out"
	case InstructionTypeExchangeIn:
		return "exchange_in"
	}
	return fmt.Sprintf("unknown(%d)", uint8(t))
}

// Instruction is a decoded booth instruction. Amount is only meaningful for
// the exchange instructions.
type Instruction struct {
	Type   InstructionType
	Amount uint32
}

// Decode parses instruction data. Bytes beyond the amount are ignored.
func Decode(data []byte) (*Instruction, error) {
	if len(data) < InstructionTypeSize {
		return nil, InvalidInstruction
	}

	var offset int
	var instructionType InstructionType
	getInstructionType(data, &instructionType, &offset)

	switch instructionType {
	case InstructionTypeInitialize:
		return &Instruction{Type: instructionType}, nil
	case InstructionTypeExchangeOut, InstructionTypeExchangeIn:
		if len(data)-offset < AmountSize {
			return nil, InvalidInstructionData
		}

		ix := &Instruction{Type: instructionType}
		getUint32(data, &ix.Amount, &offset)
		return ix, nil
	default:
		return nil, InvalidInstructionData
	}
}

// Encode returns the wire form of the instruction: one byte for Initialize,
// five bytes for the exchange instructions.
func (i *Instruction) Encode() []byte {
	var offset int

	if i.Type == InstructionTypeInitialize {
		data := make([]byte, InstructionTypeSize)
		putInstructionType(data, i.Type, &offset)
		return data
	}

	data := make([]byte, InstructionTypeSize+AmountSize)
	putInstructionType(data, i.Type, &offset)
	putUint32(data, i.Amount, &offset)
	return data
}

func putInstructionType(dst []byte, v InstructionType, offset *int) {
	dst[*offset] = uint8(v)
	*offset += 1
}
func getInstructionType(src []byte, dst *InstructionType, offset *int) {
	*dst = InstructionType(src[*offset])
	*offset += 1
}
