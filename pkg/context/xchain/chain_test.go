package xchain_test

import (
	"testing"

	"github.com/misurellig/chainkit/pkg/context/xchain"
)

// =============================================================================
// Decision 测试
// =============================================================================

func TestDecisionStates(t *testing.T) {
	tests := []struct {
		name     string
		d        xchain.Decision
		resolved bool
		enabled  bool
		str      string
	}{
		{"unset", xchain.DecisionUnset, false, false, ""},
		{"on", xchain.DecisionOn, true, true, "true"},
		{"off", xchain.DecisionOff, true, false, "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.Resolved(); got != tt.resolved {
				t.Errorf("Resolved() = %v, want %v", got, tt.resolved)
			}
			if got := tt.d.Enabled(); got != tt.enabled {
				t.Errorf("Enabled() = %v, want %v", got, tt.enabled)
			}
			if got := tt.d.String(); got != tt.str {
				t.Errorf("String() = %q, want %q", got, tt.str)
			}
		})
	}
}

func TestParseDecision(t *testing.T) {
	tests := []struct {
		in   string
		want xchain.Decision
	}{
		{"true", xchain.DecisionOn},
		{"1", xchain.DecisionOn},
		{"false", xchain.DecisionOff},
		{"0", xchain.DecisionOff},
		{"", xchain.DecisionUnset},
		{"yes", xchain.DecisionUnset},
		{"TRUE", xchain.DecisionUnset}, // 线上格式只认小写
		{"\x00garbage", xchain.DecisionUnset},
	}

	for _, tt := range tests {
		if got := xchain.ParseDecision(tt.in); got != tt.want {
			t.Errorf("ParseDecision(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// =============================================================================
// Chain 铸造与派生测试
// =============================================================================

func TestNewChain(t *testing.T) {
	c := xchain.New()

	if len(c.ChainID) != 32 {
		t.Errorf("ChainID length = %d, want 32", len(c.ChainID))
	}
	if len(c.HopID) != 16 {
		t.Errorf("HopID length = %d, want 16", len(c.HopID))
	}
	if c.ParentHopID != "" {
		t.Errorf("ParentHopID = %q, want empty (origin hop)", c.ParentHopID)
	}
	if c.ChainLength != 0 {
		t.Errorf("ChainLength = %d, want 0", c.ChainLength)
	}
	if c.Debug != xchain.DecisionUnset {
		t.Errorf("Debug = %v, want unset", c.Debug)
	}
	if c.InvocationID == "" {
		t.Error("InvocationID is empty")
	}

	// 两次铸造必须产生不同的标识
	c2 := xchain.New()
	if c.ChainID == c2.ChainID {
		t.Error("two minted chains share the same ChainID")
	}
}

func TestChainNext(t *testing.T) {
	c := xchain.New()
	c.Debug = xchain.DecisionOn

	next := c.Next()

	if next.ChainID != c.ChainID {
		t.Errorf("Next().ChainID = %q, want inherited %q", next.ChainID, c.ChainID)
	}
	if next.ParentHopID != c.HopID {
		t.Errorf("Next().ParentHopID = %q, want sender hop %q", next.ParentHopID, c.HopID)
	}
	if next.ChainLength != c.ChainLength+1 {
		t.Errorf("Next().ChainLength = %d, want %d", next.ChainLength, c.ChainLength+1)
	}
	if next.Debug != xchain.DecisionOn {
		t.Errorf("Next().Debug = %v, want resolved decision carried", next.Debug)
	}
	if next.HopID != "" || next.InvocationID != "" {
		t.Error("Next() must leave hop-local identifiers empty for the downstream to mint")
	}

	// 链深单调性：连续派生每跳恰好 +1
	n2 := next.Begin().Next()
	if n2.ChainLength != c.ChainLength+2 {
		t.Errorf("second hop ChainLength = %d, want %d", n2.ChainLength, c.ChainLength+2)
	}
}

func TestChainBegin(t *testing.T) {
	t.Run("fills missing local ids", func(t *testing.T) {
		inbound := xchain.Chain{ChainID: "0af7651916cd43dd8448eb211c80319c", ChainLength: 3}
		c := inbound.Begin()
		if c.ChainID != inbound.ChainID {
			t.Errorf("ChainID = %q, want preserved", c.ChainID)
		}
		if len(c.HopID) != 16 {
			t.Errorf("HopID length = %d, want minted 16", len(c.HopID))
		}
		if c.InvocationID == "" {
			t.Error("InvocationID not minted")
		}
		if c.ChainLength != 3 {
			t.Errorf("ChainLength = %d, want preserved 3", c.ChainLength)
		}
	})

	t.Run("keeps existing ids", func(t *testing.T) {
		c := xchain.New()
		got := c.Begin()
		if got != c {
			t.Errorf("Begin() on complete chain = %+v, want unchanged %+v", got, c)
		}
	})

	t.Run("degrades to fresh chain without chain id", func(t *testing.T) {
		c := xchain.Chain{ChainLength: 7}.Begin()
		if c.ChainID == "" {
			t.Fatal("ChainID not minted")
		}
		if c.ChainLength != 0 {
			t.Errorf("ChainLength = %d, want 0 (fresh chain semantics)", c.ChainLength)
		}
	})
}

func TestChainIsZero(t *testing.T) {
	if !(xchain.Chain{}).IsZero() {
		t.Error("zero chain reported non-zero")
	}
	if xchain.New().IsZero() {
		t.Error("minted chain reported zero")
	}
}

// =============================================================================
// ID 生成测试
// =============================================================================

func TestGenerateIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := xchain.GenerateChainID()
		if len(id) != 32 {
			t.Fatalf("GenerateChainID() length = %d, want 32", len(id))
		}
		if id == "00000000000000000000000000000000" {
			t.Fatal("GenerateChainID() returned all-zero id")
		}
		if seen[id] {
			t.Fatalf("GenerateChainID() duplicate %q", id)
		}
		seen[id] = true
	}

	hop := xchain.GenerateHopID()
	if len(hop) != 16 {
		t.Errorf("GenerateHopID() length = %d, want 16", len(hop))
	}
}
