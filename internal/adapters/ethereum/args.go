package ethereum

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/trebuchet-org/treb-migrate/internal/domain"
)

// CoerceArgs converts migration values into the Go types abi.Pack expects
func CoerceArgs(inputs abi.Arguments, values []any) ([]any, error) {
	if len(inputs) != len(values) {
		return nil, fmt.Errorf("constructor takes %d arguments, got %d", len(inputs), len(values))
	}

	out := make([]any, len(values))
	for i, input := range inputs {
		v, err := coerce(input.Type, values[i])
		if err != nil {
			name := input.Name
			if name == "" {
				name = strconv.Itoa(i)
			}
			return nil, fmt.Errorf("argument %s (%s): %w", name, input.Type.String(), err)
		}
		out[i] = v
	}
	return out, nil
}

func coerce(t abi.Type, value any) (any, error) {
	switch t.T {
	case abi.AddressTy:
		return toAddress(value)
	case abi.UintTy, abi.IntTy:
		n, err := toBigInt(value)
		if err != nil {
			return nil, err
		}
		return fitInteger(t, n)
	case abi.BoolTy:
		return toBool(value)
	case abi.StringTy:
		switch v := value.(type) {
		case string:
			return v, nil
		case int, int64, uint64, float64, bool, *big.Int:
			return fmt.Sprint(v), nil
		}
		return nil, fmt.Errorf("cannot use %T as string", value)
	case abi.BytesTy:
		return toBytes(value)
	case abi.FixedBytesTy:
		b, err := toBytes(value)
		if err != nil {
			return nil, err
		}
		if len(b) > t.Size {
			return nil, fmt.Errorf("%d bytes do not fit in bytes%d", len(b), t.Size)
		}
		arr := reflect.New(t.GetType()).Elem()
		reflect.Copy(arr, reflect.ValueOf(b))
		return arr.Interface(), nil
	case abi.SliceTy, abi.ArrayTy:
		return toList(t, value)
	default:
		return nil, fmt.Errorf("unsupported constructor argument type %s", t.String())
	}
}

func toAddress(value any) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case string:
		if !common.IsHexAddress(v) {
			return common.Address{}, fmt.Errorf("%w: %q", domain.ErrInvalidAddress, v)
		}
		return common.HexToAddress(v), nil
	}
	return common.Address{}, fmt.Errorf("%w: %v (%T)", domain.ErrInvalidAddress, value, value)
}

// maxExactFloat is the largest float64 below which every integer is exact
const maxExactFloat = 1 << 53

func toBigInt(value any) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return v, nil
	case int:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case float64:
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("%v is not an integer", v)
		}
		if math.Abs(v) > maxExactFloat {
			return nil, fmt.Errorf("%v cannot be represented exactly, write it as a string", v)
		}
		n, _ := new(big.Float).SetFloat64(v).Int(nil)
		return n, nil
	case string:
		n, ok := new(big.Int).SetString(strings.ReplaceAll(v, "_", ""), 0)
		if !ok {
			return nil, fmt.Errorf("%q is not an integer", v)
		}
		return n, nil
	}
	return nil, fmt.Errorf("cannot use %T as integer", value)
}

// fitInteger range checks n and converts it to the exact type abi.Pack wants
func fitInteger(t abi.Type, n *big.Int) (any, error) {
	var lo, hi *big.Int
	if t.T == abi.UintTy {
		lo = big.NewInt(0)
		hi = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(t.Size)), big.NewInt(1))
	} else {
		hi = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1)), big.NewInt(1))
		lo = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1)))
	}
	if n.Cmp(lo) < 0 || n.Cmp(hi) > 0 {
		return nil, fmt.Errorf("%s out of range for %s", n.String(), t.String())
	}

	// abi maps the 8, 16, 32 and 64 bit widths to Go integers, everything else to *big.Int
	goType := t.GetType()
	switch goType.Kind() {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v := reflect.New(goType).Elem()
		v.SetUint(n.Uint64())
		return v.Interface(), nil
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v := reflect.New(goType).Elem()
		v.SetInt(n.Int64())
		return v.Interface(), nil
	default:
		return new(big.Int).Set(n), nil
	}
}

func toBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(v)
	}
	return false, fmt.Errorf("cannot use %T as bool", value)
}

func toBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case common.Address:
		return v.Bytes(), nil
	case string:
		b, err := hexutil.Decode(v)
		if err != nil {
			return nil, fmt.Errorf("%q is not 0x-prefixed hex: %w", v, err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("cannot use %T as bytes", value)
}

func toList(t abi.Type, value any) (any, error) {
	items, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list for %s, got %T", t.String(), value)
	}

	var list reflect.Value
	if t.T == abi.ArrayTy {
		if len(items) != t.Size {
			return nil, fmt.Errorf("%s needs %d items, got %d", t.String(), t.Size, len(items))
		}
		list = reflect.New(t.GetType()).Elem()
	} else {
		list = reflect.MakeSlice(t.GetType(), len(items), len(items))
	}

	for i, item := range items {
		v, err := coerce(*t.Elem, item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		list.Index(i).Set(reflect.ValueOf(v))
	}
	return list.Interface(), nil
}
