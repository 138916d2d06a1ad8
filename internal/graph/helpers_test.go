package graph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/irgraph/internal/ir"
	"github.com/roach88/irgraph/internal/registry"
)

var (
	intType    = ir.NewPrimitiveType("int", ir.ModeIs)
	ptrType    = ir.NewPointerType("int*", intType)
	methodType = ir.NewMethodType("fn(int,int*)int", []*ir.Type{intType, ptrType}, []*ir.Type{intType})
	funcEntity = ir.NewEntity("f", methodType)
	globalVar  = ir.NewEntity("counter", intType)
)

// fixture is a graph with its singletons and a few ready-made values.
type fixture struct {
	g     *Graph
	block *Node // immature block with no predecessors
	mem   *Node // Proj(Start, M)
	args  *Node // Proj(Start, T_args)
	arg0  *Node // first argument, mode Is
	arg1  *Node // second argument, mode P
	one   *Node // Const Is:1
	jmp   *Node // Jmp in block
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{g: New(append([]Option{WithEntity(funcEntity)}, opts...)...)}
	require.NoError(t, f.g.InitSingletons())

	var err error
	f.block, err = f.g.NewNode(ir.OpBlock, nil, nil, Init{})
	require.NoError(t, err)
	f.mem, err = f.g.ProjectNamed(f.g.Start(), "M")
	require.NoError(t, err)
	f.args, err = f.g.ProjectNamed(f.g.Start(), "T_args")
	require.NoError(t, err)
	f.arg0, err = f.g.Project(f.args, 0)
	require.NoError(t, err)
	f.arg1, err = f.g.Project(f.args, 1)
	require.NoError(t, err)
	f.one = f.constant(t, ir.ModeIs, 1)
	f.jmp, err = f.g.NewNode(ir.OpJmp, f.block, nil, Init{})
	require.NoError(t, err)
	return f
}

func (f *fixture) constant(t *testing.T, m ir.Mode, v int64) *Node {
	t.Helper()
	n, err := f.g.NewNode(ir.OpConst, nil, nil, Init{
		Attrs: map[string]ir.AttrValue{"tarval": ir.MustTarvalInt(m, v)},
	})
	require.NoError(t, err)
	return n
}

// request builds a well-typed construction request for k: one value per
// fixed input, every required attribute, a caller mode where needed.
func (f *fixture) request(k *registry.Kind) (*Node, []*Node, Init) {
	var block *Node
	if k.Block == registry.BlockFromCaller {
		block = f.block
	}

	inputs := make([]*Node, k.NumInputs())
	for i := range inputs {
		switch k.InputLabel(i) {
		case "mem":
			inputs[i] = f.mem
		case "ptr", "dst", "src", "exo_ptr":
			inputs[i] = f.arg1
		default:
			inputs[i] = f.arg0
		}
	}

	init := Init{Attrs: map[string]ir.AttrValue{}}
	if k.Op == ir.OpProj {
		inputs[0] = f.g.Start()
		init.Attrs["proj"] = ir.Long(0)
	}
	for _, spec := range k.Attrs {
		if !spec.Required() {
			continue
		}
		if _, ok := init.Attrs[spec.Name]; ok {
			continue
		}
		init.Attrs[spec.Name] = sampleAttr(k, spec)
	}
	if k.Arity == ir.ArityDynamic {
		init.Attrs[k.CountAttr] = ir.Size(0)
	}
	if k.Mode.Kind == registry.ModeFromCaller {
		init.Mode = ir.ModeIs
	}
	return block, inputs, init
}

func sampleAttr(k *registry.Kind, spec registry.AttrSpec) ir.AttrValue {
	switch spec.Type {
	case ir.AttrEntity:
		return globalVar
	case ir.AttrTypeRef:
		if k.Op == ir.OpCall || k.Op == ir.OpBuiltin {
			return methodType
		}
		return intType
	case ir.AttrTarval:
		return ir.MustTarvalInt(ir.ModeIs, 7)
	case ir.AttrRelation:
		return ir.RelationLessEqual
	case ir.AttrBuiltinKind:
		return ir.BuiltinTrap
	case ir.AttrUnsigned:
		return ir.Unsigned(4)
	case ir.AttrMode:
		return ir.ModeValue{Mode: ir.ModeIs}
	case ir.AttrLong:
		return ir.Long(0)
	case ir.AttrSize:
		return ir.Size(0)
	case ir.AttrAsmConstraints:
		return ir.Constraints{}
	case ir.AttrIdent:
		return ir.Ident("nop")
	case ir.AttrIdents:
		return ir.Idents{}
	case ir.AttrSwitchTable:
		return &ir.SwitchTable{}
	}
	return nil
}

func requireCode(t *testing.T, err error, code ir.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, ir.CodeOf(err), "error: %v", err)
}
