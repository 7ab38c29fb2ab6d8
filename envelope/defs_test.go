package envelope_test

import (
	"reflect"
	"testing"

	"github.com/moneywise/core/envelope"
	"github.com/moneywise/core/eventstore"
	"github.com/moneywise/core/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextDefsFormAValidRegistry(t *testing.T) {
	reg, err := eventstore.NewRegistry(append(envelope.Defs(), user.Defs()...)...)

	require.NoError(t, err)

	typ, err := reg.Resolve("envelope.opened.v1")

	require.NoError(t, err)
	assert.Equal(t, reflect.TypeOf(envelope.EnvelopeOpened{}), typ)
}

func TestLegacyBudgetDiscriminatorsStayReadable(t *testing.T) {
	reg, err := eventstore.NewRegistry(envelope.Defs()...)

	require.NoError(t, err)

	typ, err := reg.Resolve("budget.envelope-created.v1")

	require.NoError(t, err)
	assert.Equal(t, reflect.TypeOf(envelope.EnvelopeOpened{}), typ)

	codec := eventstore.NewJSONCodec(reg)

	decoded, err := codec.Decode(&eventstore.EncodedEvt{
		Type: "budget.envelope-credited.v1",
		Data: `{"Amount":547,"Currency":"EUR"}`,
	})

	require.NoError(t, err)
	assert.Equal(t, envelope.EnvelopeCredited{Amount: 547, Currency: "EUR"}, decoded)
}
