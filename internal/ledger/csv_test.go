package ledger

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"compliance-ledger/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportImportProducts_RoundTrip(t *testing.T) {
	src, _ := newTestLedger(t)
	ctx := context.Background()

	gw, err := src.CreateProduct(ctx, ProductInput{Name: "Gateway, Edge", SecurityAdvisor: "sec@example.com"})
	require.NoError(t, err)
	sensor := mustProduct(t, src, "Sensor")
	_, err = src.SetCraPlan(ctx, gw.ID, CRAPlanInput{Plan: models.PlanEoL, EoLDate: date(2027, time.March, 31)})
	require.NoError(t, err)
	_, err = src.SetCraPlan(ctx, sensor.ID, CRAPlanInput{Plan: models.PlanStopSellInEU, VPApproved: models.No})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, src.ExportProducts(ctx, &buf))
	assert.True(t, strings.HasPrefix(buf.String(), strings.Join(ProductColumns, ",")+"\n"))

	dst, _ := newTestLedger(t)
	n, err := dst.ImportProducts(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := dst.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Gateway, Edge", got[0].Name)
	assert.Equal(t, "sec@example.com", got[0].SecurityAdvisor)
	require.NotNil(t, got[0].CRAEoLDate)
	assert.Equal(t, "2027-03-31", got[0].CRAEoLDate.Format(dateLayout))
	assert.Equal(t, models.Yes, got[1].CRAStopSellFlagged)

	next := mustProduct(t, dst, "Breaker")
	assert.Equal(t, uint(3), next.ID, "ids continue after imported rows")
}

func TestImportProducts_RecomputesFlag(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	data := "id,name,cra_plan,cra_stop_sell_vp_approved,cra_stop_sell_flagged\n" +
		"10,Gateway,Stop Sell in EU,Yes,Yes\n" +
		"11,Sensor,Stop Sell in EU,,No\n"
	_, err := l.ImportProducts(ctx, strings.NewReader(data))
	require.NoError(t, err)

	gw, err := l.GetProduct(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, models.No, gw.CRAStopSellFlagged)

	sensor, err := l.GetProduct(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, models.Yes, sensor.CRAStopSellFlagged)
}

func TestImportProducts_HeaderErrors(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	tests := []struct {
		name string
		data string
	}{
		{"empty file", ""},
		{"missing id column", "name,pim_link\nGateway,https://pim.example.com\n"},
		{"missing name column", "id\n1\n"},
		{"unknown column", "id,name,colour\n1,Gateway,red\n"},
		{"duplicate column", "id,name,name\n1,Gateway,Other\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.ImportProducts(ctx, strings.NewReader(tt.data))
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "header", verr.Field)
		})
	}
}

func TestImportProducts_AllOrNothing(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.ImportProducts(ctx, strings.NewReader("id,name,cra_plan\n1,Gateway,\n2,Sensor,Sunset\n"))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "line 3: cra_plan", verr.Field)

	mustProduct(t, l, "Existing")
	_, err = l.ImportProducts(ctx, strings.NewReader("id,name\n5,Gateway\n1,Clash\n"))
	var uerr *UniqueConstraintError
	require.ErrorAs(t, err, &uerr)

	products, err := l.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Existing", products[0].Name)
}

func TestImportProducts_BOMAndCase(t *testing.T) {
	l, _ := newTestLedger(t)

	n, err := l.ImportProducts(context.Background(), strings.NewReader("\ufeffID, Name\n4,Gateway\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
