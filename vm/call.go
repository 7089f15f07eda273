package vm

import "schemevm/types"

// funcall is FUNCALL (§4.2): dispatch on the tag of vm.val (the callee),
// consuming nargs arguments already pushed on the operand stack. Returns
// needsLoop = true when the callee was a closure, meaning the caller
// (Apply, or the enclosing runLoop) must keep stepping to run its body;
// false means the call already completed synchronously (primitive,
// parameter, or a generic/next-method/apply redirection that bottomed
// out in one of those) and vm.val already holds the result.
func (vm *VM) funcall(nargs int, tailp bool) (needsLoop bool, err error) {
	for {
		callee := vm.val
		switch c := callee.(type) {

		case *types.Closure:
			raw, err := vm.PopN(nargs)
			if err != nil {
				return false, err
			}
			argv, err := adjustArity(c, raw)
			if err != nil {
				return false, err
			}
			if tailp {
				if vm.fp < 0 {
					return false, newCondition(types.CondBadBytecode, "TAIL_INVOKE outside a call")
				}
				outer := vm.records[vm.fp].SavedFP
				vm.records = vm.records[:outer+1]
				vm.fp = outer
			} else {
				if vm.fp < 0 {
					return false, newCondition(types.CondBadBytecode, "INVOKE without a PREPARE_CALL")
				}
				vm.records[vm.fp].SavedEnv = vm.env
				vm.records[vm.fp].SavedPC = vm.pc
				vm.records[vm.fp].SavedConsts = vm.prog
			}
			vm.records[vm.fp].Callee = c
			vm.records[vm.fp].Vararg = c.Variadic()
			frame := types.NewFrame(len(argv), c.Env, c)
			copy(frame.Slots, argv)
			vm.env = frame
			vm.pc = c.Entry
			vm.prog = &Program{Code: c.Code, Constants: c.Constants}
			return true, nil

		case *types.Primitive:
			if c.IsApply {
				argv, err := vm.PopN(nargs)
				if err != nil {
					return false, err
				}
				if len(argv) < 2 {
					return false, newCondition(types.CondWrongArity, "apply: expected at least 2 arguments, got %d", len(argv))
				}
				proc := argv[0]
				tail, ok := types.ListToSlice(argv[len(argv)-1])
				if !ok {
					return false, newCondition(types.CondBadOperandType, "apply: last argument must be a list")
				}
				flattened := append(append([]types.Value(nil), argv[1:len(argv)-1]...), tail...)
				vm.val = proc
				if err := vm.pushArgs(flattened); err != nil {
					return false, err
				}
				nargs = len(flattened)
				continue
			}
			argv, err := vm.PopN(nargs)
			if err != nil {
				return false, err
			}
			if nargs < c.MinArgs || (c.MaxArgs >= 0 && nargs > c.MaxArgs) {
				return false, newCondition(types.CondWrongArity,
					"%s: expected %s, got %d arguments", c.Name, arityDesc(c.MinArgs, c.MaxArgs), nargs)
			}
			if vm.fp >= 0 {
				vm.records[vm.fp].Callee = c
			}
			// One value unless the primitive sets valc itself (values).
			vm.valc = 1
			result, err := c.Fn(argv)
			if err != nil {
				return false, err
			}
			if err := vm.returnFromPrimitive(); err != nil {
				return false, err
			}
			vm.val = result
			return false, nil

		case *types.Parameter:
			switch nargs {
			case 0:
				if err := vm.returnFromPrimitive(); err != nil {
					return false, err
				}
				vm.setVal1(c.Value)
				return false, nil
			case 1:
				argv, err := vm.PopN(1)
				if err != nil {
					return false, err
				}
				newVal := argv[0]
				if c.Converter != nil {
					converted, err := vm.Apply(c.Converter, []types.Value{newVal})
					if err != nil {
						return false, err
					}
					newVal = converted
				}
				c.Value = newVal
				if err := vm.returnFromPrimitive(); err != nil {
					return false, err
				}
				vm.setVal1(newVal)
				return false, nil
			default:
				return false, newCondition(types.CondWrongArity, "parameter object takes 0 or 1 arguments")
			}

		case *types.GenericFunction:
			argv, err := vm.PopN(nargs)
			if err != nil {
				return false, err
			}
			methods := c.ComputeApplicable(c, argv)
			if len(methods) == 0 {
				// §4.2: "set val = void and return from the VM re-entry
				// (caller is expected to have triggered a
				// no-applicable-method handler)" — the VM itself does no
				// type-specific generic-function logic.
				if err := vm.returnFromPrimitive(); err != nil {
					return false, err
				}
				vm.setVoid()
				return false, nil
			}
			nm := &types.NextMethod{GF: c, Args: argv, Remain: methods[1:]}
			vm.val = methods[0]
			vm.r1 = nm // stashed so the method body's (next-method) lookup can retrieve it from the call frame that follows; see builtins wiring
			if err := vm.pushArgs(argv); err != nil {
				return false, err
			}
			nargs = len(argv)
			continue

		case *types.NextMethod:
			if nargs == 0 {
				if err := vm.pushArgs(c.Args); err != nil {
					return false, err
				}
				nargs = len(c.Args)
			}
			argv, err := vm.PopN(nargs)
			if err != nil {
				return false, err
			}
			if len(c.Remain) == 0 {
				if c.GF.NoNextMethod == nil {
					return false, newCondition(types.CondBadCallable, "no next method")
				}
				vm.val = c.GF.NoNextMethod
				callArgs := append([]types.Value{c.GF}, argv...)
				if err := vm.pushArgs(callArgs); err != nil {
					return false, err
				}
				nargs = len(callArgs)
				continue
			}
			nm := &types.NextMethod{GF: c.GF, Args: argv, Remain: c.Remain[1:]}
			vm.val = c.Remain[0]
			vm.r1 = nm
			if err := vm.pushArgs(argv); err != nil {
				return false, err
			}
			nargs = len(argv)
			continue

		default:
			return false, newCondition(types.CondBadCallable, "bad function: cannot apply %s", callee.String())
		}
	}
}

// returnFromPrimitive tears down the current activation record after a
// synchronous primitive/parameter call (§4.2 RETURN_FROM_PRIMITIVE).
func (vm *VM) returnFromPrimitive() error {
	if vm.fp < 0 {
		return nil // called at top level via Apply with no PREPARE_CALL ever issued
	}
	outer := vm.records[vm.fp].SavedFP
	vm.records = vm.records[:vm.fp]
	vm.fp = outer
	return nil
}

func (vm *VM) pushArgs(args []types.Value) error {
	for _, a := range args {
		if err := vm.Push(a); err != nil {
			return err
		}
	}
	return nil
}

// adjustArity implements §4.3: exact match required for non-variadic
// closures; variadic closures fold the tail into a list, returning a
// slice of exactly min+1 values (the required arguments plus one rest
// list).
func adjustArity(c *types.Closure, raw []types.Value) ([]types.Value, error) {
	nargs := len(raw)
	if !c.Variadic() {
		if nargs != c.Arity {
			return nil, newCondition(types.CondWrongArity,
				"%s: expected %d arguments, got %d", closureName(c), c.Arity, nargs)
		}
		return raw, nil
	}
	min := c.MinArgs()
	if nargs < min {
		return nil, newCondition(types.CondWrongArity,
			"%s: expected at least %d arguments, got %d", closureName(c), min, nargs)
	}
	adjusted := make([]types.Value, min+1)
	copy(adjusted, raw[:min])
	adjusted[min] = types.SliceToList(raw[min:])
	return adjusted, nil
}

func closureName(c *types.Closure) string {
	if c.Name != "" {
		return c.Name
	}
	return "#<anonymous>"
}

func arityDesc(min, max int) string {
	if max < 0 {
		if min == 0 {
			return "any number of arguments"
		}
		return "at least " + itoa(min) + " arguments"
	}
	if min == max {
		return itoa(min) + " arguments"
	}
	return "between " + itoa(min) + " and " + itoa(max) + " arguments"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
