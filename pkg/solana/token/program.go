package token

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/code-payments/exchange-booth/pkg/solana"
	"github.com/code-payments/exchange-booth/pkg/solana/system"
)

// ProgramKey is the SPL token program, TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA.
var ProgramKey = ed25519.PublicKey{6, 221, 246, 225, 215, 101, 161, 147, 217, 203, 225, 70, 206, 235, 121, 172, 28, 180, 133, 237, 95, 91, 55, 145, 58, 140, 245, 133, 126, 255, 0, 169}

// Command is the leading byte of a token instruction.
type Command byte

const (
	CommandInitializeMint    Command = 0
	CommandInitializeAccount Command = 1
	CommandTransfer          Command = 3
	CommandMintTo            Command = 7
)

// Custom program errors, numbered as the on-chain program numbers them.
const (
	ErrorNotRentExempt solana.CustomError = iota
	ErrorInsufficientFunds
	ErrorInvalidMint
	ErrorMintMismatch
	ErrorOwnerMismatch
	ErrorFixedSupply
	ErrorAlreadyInUse
	ErrorInvalidNumberOfProvidedSigners
	ErrorInvalidNumberOfRequiredSigners
	ErrorUninitializedState
	ErrorNativeNotSupported
	ErrorNonNativeHasBalance
	ErrorInvalidInstruction
	ErrorInvalidState
	ErrorOverflow
	ErrorAuthorityTypeNotSupported
	ErrorMintCannotFreeze
	ErrorAccountFrozen
	ErrorMintDecimalsMismatch
)

const (
	// tag, decimals, authority, option tag, freeze authority
	mintArgsSize         = 2 + ed25519.PublicKeySize + 1 + ed25519.PublicKeySize
	mintArgsSizeNoFreeze = 2 + ed25519.PublicKeySize + 1

	amountArgsSize = 1 + 8
)

type InitializeMintArgs struct {
	Decimals        byte
	MintAuthority   ed25519.PublicKey
	FreezeAuthority ed25519.PublicKey
}

// InitializeMint builds an instruction initializing a rent exempt mint account.
//
// Accounts: [writable] mint, [] rent sysvar.
func InitializeMint(mint, mintAuthority, freezeAuthority ed25519.PublicKey, decimals byte) solana.Instruction {
	data := make([]byte, 0, mintArgsSize)
	data = append(data, byte(CommandInitializeMint), decimals)
	data = append(data, mintAuthority...)
	if len(freezeAuthority) == 0 {
		data = append(data, 0)
		data = append(data, make([]byte, ed25519.PublicKeySize)...)
	} else {
		data = append(data, 1)
		data = append(data, freezeAuthority...)
	}

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(mint, false),
		solana.NewReadonlyAccountMeta(system.RentSysVar, false),
	)
}

// UnmarshalInitializeMintData parses InitializeMint instruction data. When no
// freeze authority is set the trailing key may be omitted.
func UnmarshalInitializeMintData(data []byte) (*InitializeMintArgs, error) {
	if !hasCommand(data, CommandInitializeMint) {
		return nil, solana.ErrIncorrectInstruction
	}
	if len(data) != mintArgsSize && len(data) != mintArgsSizeNoFreeze {
		return nil, errors.Errorf("invalid instruction data size: %d", len(data))
	}

	authorityEnd := 2 + ed25519.PublicKeySize
	args := &InitializeMintArgs{
		Decimals:      data[1],
		MintAuthority: cloneKey(data[2:authorityEnd]),
	}

	switch data[authorityEnd] {
	case 0:
	case 1:
		if len(data) != mintArgsSize {
			return nil, errors.Errorf("invalid instruction data size: %d", len(data))
		}
		args.FreezeAuthority = cloneKey(data[authorityEnd+1:])
	default:
		return nil, errors.Errorf("invalid freeze authority option: %d", data[authorityEnd])
	}

	return args, nil
}

// InitializeAccount builds an instruction initializing a token account.
//
// Accounts: [writable, signer] account, [] mint, [] owner, [] rent sysvar.
func InitializeAccount(account, mint, owner ed25519.PublicKey) solana.Instruction {
	return solana.NewInstruction(
		ProgramKey,
		[]byte{byte(CommandInitializeAccount)},
		solana.NewAccountMeta(account, true),
		solana.NewReadonlyAccountMeta(mint, false),
		solana.NewReadonlyAccountMeta(owner, false),
		solana.NewReadonlyAccountMeta(system.RentSysVar, false),
	)
}

// Transfer builds an instruction moving amount tokens between accounts.
//
// Accounts: [writable] source, [writable] destination, [signer] owner.
func Transfer(source, dest, owner ed25519.PublicKey, amount uint64) solana.Instruction {
	return amountInstruction(CommandTransfer, source, dest, owner, amount)
}

// MintTo builds an instruction minting amount tokens into dest.
//
// Accounts: [writable] mint, [writable] destination, [signer] mint authority.
func MintTo(mint, dest, mintAuthority ed25519.PublicKey, amount uint64) solana.Instruction {
	return amountInstruction(CommandMintTo, mint, dest, mintAuthority, amount)
}

// UnmarshalAmountData parses the u64 amount of a Transfer or MintTo instruction.
func UnmarshalAmountData(command Command, data []byte) (uint64, error) {
	if !hasCommand(data, command) {
		return 0, solana.ErrIncorrectInstruction
	}
	if len(data) != amountArgsSize {
		return 0, errors.Errorf("invalid instruction data size: %d", len(data))
	}

	return binary.LittleEndian.Uint64(data[1:]), nil
}

func amountInstruction(command Command, from, to, authority ed25519.PublicKey, amount uint64) solana.Instruction {
	data := binary.LittleEndian.AppendUint64([]byte{byte(command)}, amount)

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(from, false),
		solana.NewAccountMeta(to, false),
		solana.NewReadonlyAccountMeta(authority, true),
	)
}

func hasCommand(data []byte, command Command) bool {
	return len(data) > 0 && Command(data[0]) == command
}

func cloneKey(b []byte) ed25519.PublicKey {
	key := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(key, b)
	return key
}
