package system

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/code-payments/exchange-booth/pkg/solana"
)

// ProgramKey is the native system program, 11111111111111111111111111111111.
var ProgramKey [32]byte

// Command is the u32 discriminator prefixed to every system instruction.
type Command uint32

const (
	CommandCreateAccount Command = iota
	CommandAssign
	CommandTransfer
)

// Custom errors returned by the system program.
const (
	ErrorAccountAlreadyInUse solana.CustomError = iota
	ErrorResultWithNegativeLamports
	ErrorInvalidProgramID
	ErrorInvalidAccountDataLength
	ErrorMaxSeedLengthExceeded
	ErrorAddressWithSeedMismatch
)

const (
	commandSize = 4

	// command, lamports, space, owner
	createAccountDataSize = commandSize + 8 + 8 + ed25519.PublicKeySize

	// command, lamports
	transferDataSize = commandSize + 8
)

// GetCommand returns the command encoded in the instruction data.
func GetCommand(data []byte) (Command, error) {
	if len(data) < commandSize {
		return 0, solana.ErrIncorrectInstruction
	}
	return Command(binary.LittleEndian.Uint32(data)), nil
}

type CreateAccountArgs struct {
	Lamports uint64
	Size     uint64
	Owner    ed25519.PublicKey
}

// CreateAccount builds an instruction allocating size bytes at address,
// funded with lamports from funder and assigned to owner.
//
// Accounts: [writable, signer] funder, [writable, signer] address.
func CreateAccount(funder, address, owner ed25519.PublicKey, lamports, size uint64) solana.Instruction {
	data := commandData(CommandCreateAccount, createAccountDataSize)
	data = binary.LittleEndian.AppendUint64(data, lamports)
	data = binary.LittleEndian.AppendUint64(data, size)
	if len(owner) == 0 {
		owner = make(ed25519.PublicKey, ed25519.PublicKeySize)
	}
	data = append(data, owner...)

	return solana.NewInstruction(
		ProgramKey[:],
		data,
		solana.NewAccountMeta(funder, true),
		solana.NewAccountMeta(address, true),
	)
}

// UnmarshalCreateAccountData parses the data of a CreateAccount instruction.
func UnmarshalCreateAccountData(data []byte) (*CreateAccountArgs, error) {
	if err := checkData(data, CommandCreateAccount, createAccountDataSize); err != nil {
		return nil, err
	}

	body := data[commandSize:]
	args := &CreateAccountArgs{
		Lamports: binary.LittleEndian.Uint64(body),
		Size:     binary.LittleEndian.Uint64(body[8:]),
		Owner:    make(ed25519.PublicKey, ed25519.PublicKeySize),
	}
	copy(args.Owner, body[16:])

	return args, nil
}

// Transfer builds an instruction moving lamports between system accounts.
//
// Accounts: [writable, signer] from, [writable] to.
func Transfer(from, to ed25519.PublicKey, lamports uint64) solana.Instruction {
	data := commandData(CommandTransfer, transferDataSize)
	data = binary.LittleEndian.AppendUint64(data, lamports)

	return solana.NewInstruction(
		ProgramKey[:],
		data,
		solana.NewAccountMeta(from, true),
		solana.NewAccountMeta(to, false),
	)
}

// UnmarshalTransferData parses the lamport amount of a Transfer instruction.
func UnmarshalTransferData(data []byte) (uint64, error) {
	if err := checkData(data, CommandTransfer, transferDataSize); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(data[commandSize:]), nil
}

func commandData(command Command, size int) []byte {
	return binary.LittleEndian.AppendUint32(make([]byte, 0, size), uint32(command))
}

func checkData(data []byte, command Command, size int) error {
	if actual, err := GetCommand(data); err != nil || actual != command {
		return solana.ErrIncorrectInstruction
	}
	if len(data) != size {
		return errors.Errorf("invalid instruction data size: %d", len(data))
	}
	return nil
}
