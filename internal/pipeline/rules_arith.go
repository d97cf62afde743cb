package pipeline

import "ssaopt/internal/ir"

// simplifyBitwise covers AND/OR/XOR identities (spec.md §4.4 "integer
// bitwise"): X op X and identity/absorbing constants on either side. The
// REF_LOCAL (and GET_GLOBAL/GET_THREAD_LOCAL) address-plus-constant-offset
// fold lives in simplifyArith; bitwise ops never fold into an address.
func simplifyBitwise(c *ir.Code, fn *ir.Function, in *ir.Instruction) (bool, error) {
	p := in.Params.(ir.BinaryWidth)

	if in.Op == ir.OpBitwiseXor && p.X == p.Y {
		b := builderFor(fn)
		newID, err := b.BuilderImmediate(in.Block, 0, p.Width, false)
		if err != nil {
			return false, err
		}
		return true, replaceValue(c, fn, in.ID, newID)
	}
	if (in.Op == ir.OpBitwiseAnd || in.Op == ir.OpBitwiseOr) && p.X == p.Y {
		return true, replaceValue(c, fn, in.ID, p.X)
	}

	if done, err := foldBitwiseConst(c, fn, in, p, p.X, p.Y); done || err != nil {
		return done, err
	}
	if done, err := foldBitwiseConst(c, fn, in, p, p.Y, p.X); done || err != nil {
		return done, err
	}
	return false, nil
}

func foldBitwiseConst(c *ir.Code, fn *ir.Function, in *ir.Instruction, p ir.BinaryWidth, constSide, other ir.InstrID) (bool, error) {
	imm, ok := constOf(c, constSide)
	if !ok || imm.Float {
		return false, nil
	}
	switch in.Op {
	case ir.OpBitwiseAnd:
		if imm.Value == 0 {
			b := builderFor(fn)
			newID, err := b.BuilderImmediate(in.Block, 0, p.Width, false)
			if err != nil {
				return false, err
			}
			return true, replaceValue(c, fn, in.ID, newID)
		}
		if imm.Value&maskOf(p.Width) == maskOf(p.Width) {
			return true, replaceValue(c, fn, in.ID, other)
		}
	case ir.OpBitwiseOr:
		if imm.Value == 0 {
			return true, replaceValue(c, fn, in.ID, other)
		}
		if imm.Value&maskOf(p.Width) == maskOf(p.Width) {
			b := builderFor(fn)
			newID, err := b.BuilderImmediate(in.Block, maskOf(p.Width), p.Width, false)
			if err != nil {
				return false, err
			}
			return true, replaceValue(c, fn, in.ID, newID)
		}
	case ir.OpBitwiseXor:
		if imm.Value == 0 {
			return true, replaceValue(c, fn, in.ID, other)
		}
	}

	// REF_LOCAL/GET_GLOBAL/GET_THREAD_LOCAL + const offset: only meaningful
	// for ADD/SUB, handled in simplifyArith; bitwise ops never fold into an
	// address base.
	return false, nil
}

// simplifyArith covers ADD/SUB/MUL/DIV identities and the address-plus-
// constant-offset fold for REF_LOCAL/GET_GLOBAL/GET_THREAD_LOCAL (spec.md
// §4.4 "integer ADD/SUB/MUL/DIV"). The offset fold is applied symmetrically:
// `addr + const` and `const + addr` both fold (see DESIGN.md).
func simplifyArith(c *ir.Code, fn *ir.Function, in *ir.Instruction) (bool, error) {
	p := in.Params.(ir.BinaryWidth)

	if in.Op == ir.OpSub && p.X == p.Y {
		b := builderFor(fn)
		newID, err := b.BuilderImmediate(in.Block, 0, p.Width, false)
		if err != nil {
			return false, err
		}
		return true, replaceValue(c, fn, in.ID, newID)
	}

	if in.Op == ir.OpAdd {
		if done, err := foldAddressOffset(c, fn, in, p.X, p.Y, p.Width); done || err != nil {
			return done, err
		}
		if done, err := foldAddressOffset(c, fn, in, p.Y, p.X, p.Width); done || err != nil {
			return done, err
		}
	}
	if in.Op == ir.OpSub {
		if done, err := foldAddressOffset(c, fn, in, p.X, p.Y, p.Width); done || err != nil {
			return done, err
		}
	}

	if imm, ok := constOf(c, p.Y); ok && !imm.Float {
		switch in.Op {
		case ir.OpAdd, ir.OpSub:
			if imm.Value == 0 {
				return true, replaceValue(c, fn, in.ID, p.X)
			}
		case ir.OpMul:
			if imm.Value == 1 {
				return true, replaceValue(c, fn, in.ID, p.X)
			}
			if imm.Value == 0 {
				b := builderFor(fn)
				newID, err := b.BuilderImmediate(in.Block, 0, p.Width, false)
				if err != nil {
					return false, err
				}
				return true, replaceValue(c, fn, in.ID, newID)
			}
		case ir.OpDiv:
			if imm.Value == 1 {
				return true, replaceValue(c, fn, in.ID, p.X)
			}
		}
	}
	if imm, ok := constOf(c, p.X); ok && !imm.Float && in.Op == ir.OpAdd && imm.Value == 0 {
		return true, replaceValue(c, fn, in.ID, p.Y)
	}

	return false, nil
}

// foldAddressOffset implements "REF_LOCAL(slot, off) +/- const -> REF_LOCAL
// (slot, off +/- const)" and its GET_GLOBAL/GET_THREAD_LOCAL analogues.
// The constant is negated when in.Op is SUB; the addrSide/constSide split
// lets callers cover both operand orders.
func foldAddressOffset(c *ir.Code, fn *ir.Function, in *ir.Instruction, addrSide, constSide ir.InstrID, width int) (bool, error) {
	addrIn, err := c.Instr(addrSide)
	if err != nil {
		return false, nil
	}
	imm, ok := constOf(c, constSide)
	if !ok || imm.Float {
		return false, nil
	}
	delta := int64(imm.Value)
	if in.Op == ir.OpSub {
		delta = -delta
	}
	b := builderFor(fn)
	switch addrIn.Op {
	case ir.OpRefLocal:
		base := addrIn.Params.(ir.AddrBase)
		newID, err := b.BuilderRefLocal(in.Block, base.Base, base.Offset+delta)
		if err != nil {
			return false, err
		}
		return true, replaceValue(c, fn, in.ID, newID)
	case ir.OpGetGlobal:
		base := addrIn.Params.(ir.AddrBase)
		newID, err := b.BuilderGetGlobal(in.Block, base.Base, base.Offset+delta)
		if err != nil {
			return false, err
		}
		return true, replaceValue(c, fn, in.ID, newID)
	case ir.OpGetThreadLocal:
		base := addrIn.Params.(ir.AddrBase)
		newID, err := b.BuilderGetThreadLocal(in.Block, base.Base, base.Offset+delta)
		if err != nil {
			return false, err
		}
		return true, replaceValue(c, fn, in.ID, newID)
	default:
		return false, nil
	}
}

// simplifyShift covers SHL/SHR/ASHR identities: shift by zero is the
// identity, shift of zero is zero, and a shift amount at or beyond the
// operand width is undefined in the source language and left untouched
// (no fold — spec.md §4.4 only promises the two safe identities).
func simplifyShift(c *ir.Code, fn *ir.Function, in *ir.Instruction) (bool, error) {
	p := in.Params.(ir.BinaryWidth)
	if imm, ok := constOf(c, p.Y); ok && !imm.Float && imm.Value == 0 {
		return true, replaceValue(c, fn, in.ID, p.X)
	}
	if imm, ok := constOf(c, p.X); ok && !imm.Float && imm.Value == 0 {
		return true, replaceValue(c, fn, in.ID, p.X)
	}
	return false, nil
}

// simplifyExtension covers ZERO_EXTEND/SIGN_EXTEND identity
// (FromWidth == ToWidth) and composition of two extensions of the same
// kind into one (spec.md §4.4 "integer extensions").
func simplifyExtension(c *ir.Code, fn *ir.Function, in *ir.Instruction) (bool, error) {
	p := in.Params.(ir.Extension)
	if p.FromWidth == p.ToWidth {
		return true, replaceValue(c, fn, in.ID, p.X)
	}
	xi, err := c.Instr(p.X)
	if err != nil {
		return false, nil
	}
	if xi.Op == in.Op {
		inner := xi.Params.(ir.Extension)
		if inner.ToWidth == p.FromWidth {
			b := builderFor(fn)
			var newID ir.InstrID
			if in.Op == ir.OpZeroExtend {
				newID, err = b.BuilderZeroExtend(in.Block, inner.X, inner.FromWidth, p.ToWidth)
			} else {
				newID, err = b.BuilderSignExtend(in.Block, inner.X, inner.FromWidth, p.ToWidth)
			}
			if err != nil {
				return false, err
			}
			return true, replaceValue(c, fn, in.ID, newID)
		}
	}
	return false, nil
}

// simplifyBitintCast drops the no-op bit-int cast (FromWidth == ToWidth),
// the one rule spec.md §4.4 names explicitly for this opcode.
func simplifyBitintCast(c *ir.Code, fn *ir.Function, in *ir.Instruction) (bool, error) {
	p := in.Params.(ir.Extension)
	if p.FromWidth == p.ToWidth {
		return true, replaceValue(c, fn, in.ID, p.X)
	}
	return false, nil
}
