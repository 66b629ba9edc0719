// Package rs implements a Reed-Solomon codec over GF(2^8) for byte-oriented
// forward error correction. Encode appends N parity bytes; Decode corrects
// up to N/2 byte errors at unknown positions and reports an uncorrectable
// block when the error count exceeds that bound.
//
// Messages longer than one RS block are split transparently: each block
// carries up to 255-N data bytes plus its own parity, and the final block is
// shortened. The field polynomial is 0x11d with first consecutive root
// alpha^1, the classic configuration used by FX.25 and friends.
package rs

import (
	"errors"
	"fmt"
)

const (
	fieldPoly = 0x11d // x^8 + x^4 + x^3 + x^2 + 1, primitive over GF(2)
	blockSize = 255   // symbols per full codeword, 2^8 - 1
	fcr       = 1     // first consecutive root, index form

	// a0 is the index-form representation of the zero element.
	a0 = blockSize
)

// ErrUncorrectable reports a block with more byte errors than the parity can
// repair. The payload cannot be trusted; the only recovery is retransmission.
var ErrUncorrectable = errors.New("uncorrectable block")

// Codec is a Reed-Solomon encoder/decoder with a fixed parity byte count.
// It is safe for concurrent use: all state is immutable after construction.
type Codec struct {
	parity  int
	alphaTo [blockSize + 1]byte // index -> polynomial form
	indexOf [blockSize + 1]byte // polynomial -> index form
	genpoly []byte              // generator polynomial, index form
}

// NewCodec builds a codec appending the given number of parity bytes per
// block. Correction capability is parity/2 byte errors per block.
func NewCodec(parity int) (*Codec, error) {
	if parity < 1 || parity > blockSize-1 {
		return nil, fmt.Errorf("parity byte count must be in 1..%d, got %d", blockSize-1, parity)
	}

	c := &Codec{parity: parity}

	// Galois field log/antilog tables.
	c.indexOf[0] = a0
	c.alphaTo[a0] = 0
	sr := 1
	for i := 0; i < blockSize; i++ {
		c.indexOf[sr] = byte(i)
		c.alphaTo[i] = byte(sr)
		sr <<= 1
		if sr&0x100 != 0 {
			sr ^= fieldPoly
		}
		sr &= blockSize
	}

	// Generator polynomial from its roots alpha^fcr .. alpha^(fcr+parity-1).
	c.genpoly = make([]byte, parity+1)
	c.genpoly[0] = 1
	for i, root := 0, fcr; i < parity; i, root = i+1, root+1 {
		c.genpoly[i+1] = 1
		for j := i; j > 0; j-- {
			if c.genpoly[j] != 0 {
				c.genpoly[j] = c.genpoly[j-1] ^ c.alphaTo[mod255(int(c.indexOf[c.genpoly[j]])+root)]
			} else {
				c.genpoly[j] = c.genpoly[j-1]
			}
		}
		c.genpoly[0] = c.alphaTo[mod255(int(c.indexOf[c.genpoly[0]])+root)]
	}
	// Index form for quicker encoding.
	for i := range c.genpoly {
		c.genpoly[i] = c.indexOf[c.genpoly[i]]
	}

	return c, nil
}

// Parity returns the number of parity bytes appended per block.
func (c *Codec) Parity() int { return c.parity }

// MaxErrors returns the per-block correction bound, parity/2.
func (c *Codec) MaxErrors() int { return c.parity / 2 }

// EncodedLen returns the encoded length for a message of n bytes.
func (c *Codec) EncodedLen(n int) int {
	dataPerBlock := blockSize - c.parity
	blocks := n / dataPerBlock
	if n%dataPerBlock != 0 || blocks == 0 {
		blocks++
	}
	return n + blocks*c.parity
}

// Encode returns msg with parity appended. Long messages are split into
// blocks of 255-parity data bytes, each followed by its own parity; the
// shortened final block is handled as a virtually zero-padded codeword.
func (c *Codec) Encode(msg []byte) []byte {
	dataPerBlock := blockSize - c.parity
	out := make([]byte, 0, c.EncodedLen(len(msg)))

	rest := msg
	for {
		chunk := rest
		if len(chunk) > dataPerBlock {
			chunk = chunk[:dataPerBlock]
		}
		out = append(out, chunk...)
		out = c.appendParity(out, chunk)

		rest = rest[len(chunk):]
		if len(rest) == 0 {
			return out
		}
	}
}

// appendParity computes the parity of one (possibly shortened) block with an
// LFSR over the generator polynomial and appends it to out.
func (c *Codec) appendParity(out, data []byte) []byte {
	bb := make([]byte, c.parity)
	for _, d := range data {
		feedback := c.indexOf[d^bb[0]]
		if feedback != a0 {
			for j := 1; j < c.parity; j++ {
				bb[j] ^= c.alphaTo[mod255(int(feedback)+int(c.genpoly[c.parity-j]))]
			}
		}
		copy(bb, bb[1:])
		if feedback != a0 {
			bb[c.parity-1] = c.alphaTo[mod255(int(feedback)+int(c.genpoly[0]))]
		} else {
			bb[c.parity-1] = 0
		}
	}
	return append(out, bb...)
}

// Decode recovers the original message from encoded data, correcting up to
// parity/2 byte errors in each block. It returns ErrUncorrectable (wrapped
// with the block index) when a block has more errors than that.
// The input slice is not modified.
func (c *Codec) Decode(encoded []byte) ([]byte, error) {
	if len(encoded) < c.parity {
		return nil, fmt.Errorf("encoded length %d shorter than parity %d", len(encoded), c.parity)
	}

	msg := make([]byte, 0, len(encoded))
	rest := encoded
	for blockIdx := 0; len(rest) > 0; blockIdx++ {
		block := rest
		if len(block) > blockSize {
			block = block[:blockSize]
		}
		if len(block) < c.parity {
			return nil, fmt.Errorf("block %d: length %d shorter than parity %d", blockIdx, len(block), c.parity)
		}

		corrected := make([]byte, len(block))
		copy(corrected, block)
		if err := c.correctBlock(corrected); err != nil {
			return nil, fmt.Errorf("block %d: %w", blockIdx, err)
		}
		msg = append(msg, corrected[:len(block)-c.parity]...)

		rest = rest[len(block):]
	}
	return msg, nil
}

// correctBlock repairs one shortened codeword in place: syndrome
// computation, Berlekamp-Massey for the error locator, Chien search for the
// error positions and Forney's formula for the error values.
func (c *Codec) correctBlock(block []byte) error {
	pad := blockSize - len(block)
	nroots := c.parity

	// Syndromes, evaluating the received polynomial at the generator roots.
	syn := make([]int, nroots)
	for i := range syn {
		syn[i] = int(block[0])
	}
	for j := 1; j < len(block); j++ {
		for i := 0; i < nroots; i++ {
			if syn[i] == 0 {
				syn[i] = int(block[j])
			} else {
				syn[i] = int(block[j]) ^ int(c.alphaTo[mod255(int(c.indexOf[syn[i]])+(fcr+i))])
			}
		}
	}

	synError := 0
	for i := range syn {
		synError |= syn[i]
		syn[i] = int(c.indexOf[syn[i]])
	}
	if synError == 0 {
		// Already a codeword.
		return nil
	}

	// Berlekamp-Massey: find the minimal error locator polynomial lambda.
	lambda := make([]byte, nroots+1)
	lambda[0] = 1
	b := make([]int, nroots+1)
	t := make([]byte, nroots+1)
	for i := range b {
		b[i] = int(c.indexOf[lambda[i]])
	}

	el := 0
	for r := 1; r <= nroots; r++ {
		discr := 0
		for i := 0; i < r; i++ {
			if lambda[i] != 0 && syn[r-i-1] != a0 {
				discr ^= int(c.alphaTo[mod255(int(c.indexOf[lambda[i]])+syn[r-i-1])])
			}
		}
		if discr == 0 {
			// b = x*b
			copy(b[1:], b[:nroots])
			b[0] = a0
			continue
		}
		discrIdx := int(c.indexOf[discr])

		t[0] = lambda[0]
		for i := 0; i < nroots; i++ {
			if b[i] != a0 {
				t[i+1] = lambda[i+1] ^ c.alphaTo[mod255(discrIdx+b[i])]
			} else {
				t[i+1] = lambda[i+1]
			}
		}
		if 2*el <= r-1 {
			el = r - el
			for i := 0; i <= nroots; i++ {
				if lambda[i] == 0 {
					b[i] = a0
				} else {
					b[i] = mod255(int(c.indexOf[lambda[i]]) - discrIdx + blockSize)
				}
			}
		} else {
			copy(b[1:], b[:nroots])
			b[0] = a0
		}
		copy(lambda, t)
	}

	// Convert lambda to index form and find its degree.
	lambdaIdx := make([]int, nroots+1)
	degLambda := 0
	for i := range lambda {
		lambdaIdx[i] = int(c.indexOf[lambda[i]])
		if lambda[i] != 0 {
			degLambda = i
		}
	}
	if degLambda == 0 {
		return ErrUncorrectable
	}

	// Chien search: locate the roots of lambda.
	reg := make([]int, nroots+1)
	copy(reg[1:], lambdaIdx[1:])
	roots := make([]int, 0, degLambda)
	locs := make([]int, 0, degLambda)
	for i, k := 1, 0; i <= blockSize; i, k = i+1, mod255(k+1) {
		q := 1
		for j := degLambda; j > 0; j-- {
			if reg[j] != a0 {
				reg[j] = mod255(reg[j] + j)
				q ^= int(c.alphaTo[reg[j]])
			}
		}
		if q != 0 {
			continue
		}
		roots = append(roots, i)
		locs = append(locs, k)
		if len(roots) == degLambda {
			break
		}
	}
	if len(roots) != degLambda {
		// deg(lambda) unequal to the number of roots means more errors than
		// the parity can locate.
		return ErrUncorrectable
	}

	// omega = syn * lambda mod x^nroots, index form.
	degOmega := degLambda - 1
	omega := make([]int, degOmega+1)
	for i := 0; i <= degOmega; i++ {
		tmp := 0
		for j := i; j >= 0; j-- {
			if syn[i-j] != a0 && lambdaIdx[j] != a0 {
				tmp ^= int(c.alphaTo[mod255(syn[i-j]+lambdaIdx[j])])
			}
		}
		omega[i] = int(c.indexOf[tmp])
	}

	// Forney: error value at each located position is
	// omega(X^-1) / lambda'(X^-1), in our index bookkeeping below.
	for j := len(roots) - 1; j >= 0; j-- {
		num1 := 0
		for i := degOmega; i >= 0; i-- {
			if omega[i] != a0 {
				num1 ^= int(c.alphaTo[mod255(omega[i]+i*roots[j])])
			}
		}
		if num1 == 0 {
			continue
		}
		num2 := int(c.indexOf[c.alphaTo[mod255(roots[j]*(fcr-1)+blockSize)]])

		den := 0
		start := degLambda
		if start > nroots-1 {
			start = nroots - 1
		}
		for i := start &^ 1; i >= 0; i -= 2 {
			if lambdaIdx[i+1] != a0 {
				den ^= int(c.alphaTo[mod255(lambdaIdx[i+1]+i*roots[j])])
			}
		}
		if den == 0 {
			return ErrUncorrectable
		}

		if locs[j] >= pad {
			block[locs[j]-pad] ^= c.alphaTo[mod255(int(c.indexOf[num1])+num2+blockSize-int(c.indexOf[den]))]
		} else {
			// Error located in the virtual zero padding: the codeword was
			// never transmitted there, so the syndromes are lying.
			return ErrUncorrectable
		}
	}
	return nil
}

// mod255 reduces a non-negative index-form exponent modulo 2^8-1.
func mod255(x int) int {
	for x >= blockSize {
		x -= blockSize
	}
	return x
}
