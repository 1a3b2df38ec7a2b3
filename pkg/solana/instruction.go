package solana

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"sort"
)

var (
	ErrIncorrectProgram     = errors.New("incorrect program")
	ErrIncorrectInstruction = errors.New("incorrect instruction")
)

// AccountMeta is an account referenced by an instruction, along with the
// permissions the instruction requires of it.
type AccountMeta struct {
	PublicKey  ed25519.PublicKey
	IsSigner   bool
	IsWritable bool

	isPayer   bool
	isProgram bool
}

// NewAccountMeta returns a writable AccountMeta.
func NewAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{PublicKey: pub, IsSigner: isSigner, IsWritable: true}
}

// NewReadonlyAccountMeta returns a read-only AccountMeta.
func NewReadonlyAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{PublicKey: pub, IsSigner: isSigner}
}

// Instruction is a single program invocation.
type Instruction struct {
	Program  ed25519.PublicKey
	Accounts []AccountMeta
	Data     []byte
}

func NewInstruction(program ed25519.PublicKey, data []byte, accounts ...AccountMeta) Instruction {
	return Instruction{
		Program:  program,
		Data:     data,
		Accounts: accounts,
	}
}

// CompiledInstruction is an Instruction whose program and accounts are
// indices into the message account list.
type CompiledInstruction struct {
	ProgramIndex byte
	Accounts     []byte
	Data         []byte
}

// collectAccounts returns the unique accounts referenced by the payer and
// instructions, with permissions merged, in message order:
//
//  1. the payer
//  2. writable signers, then read-only signers
//  3. writable non-signers, then read-only non-signers
//  4. programs
//
// Ties are broken by key.
//
// Reference: https://docs.solana.com/transaction#account-addresses-format
func collectAccounts(payer ed25519.PublicKey, instructions []Instruction) []AccountMeta {
	var accounts []AccountMeta
	merge := func(meta AccountMeta) {
		for i := range accounts {
			if !bytes.Equal(accounts[i].PublicKey, meta.PublicKey) {
				continue
			}

			accounts[i].IsSigner = accounts[i].IsSigner || meta.IsSigner
			accounts[i].IsWritable = accounts[i].IsWritable || meta.IsWritable
			accounts[i].isPayer = accounts[i].isPayer || meta.isPayer
			return
		}
		accounts = append(accounts, meta)
	}

	merge(AccountMeta{PublicKey: payer, IsSigner: true, IsWritable: true, isPayer: true})
	for _, ix := range instructions {
		merge(AccountMeta{PublicKey: ix.Program, isProgram: true})
		for _, meta := range ix.Accounts {
			merge(meta)
		}
	}

	sort.SliceStable(accounts, func(i, j int) bool {
		a, b := accounts[i], accounts[j]
		switch {
		case a.isPayer != b.isPayer:
			return a.isPayer
		case a.isProgram != b.isProgram:
			return b.isProgram
		case a.IsSigner != b.IsSigner:
			return a.IsSigner
		case a.IsWritable != b.IsWritable:
			return a.IsWritable
		default:
			return bytes.Compare(a.PublicKey, b.PublicKey) < 0
		}
	})

	return accounts
}

func indexOf(keys []ed25519.PublicKey, key ed25519.PublicKey) int {
	for i, candidate := range keys {
		if bytes.Equal(candidate, key) {
			return i
		}
	}
	return -1
}
