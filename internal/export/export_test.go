package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/ad-cutoff/internal/analytics"
	"github.com/AngelCh415/ad-cutoff/internal/models"
)

func sampleAd() models.AdAnalysis {
	var rows []models.RawRecord
	for d := 1; d <= 6; d++ {
		date := time.Date(2025, 5, d, 0, 0, 0, 0, time.UTC)
		spend, roas := 12345.0, 3.0
		if d == 6 {
			roas = 1.234
		}
		rows = append(rows, models.RawRecord{AdID: "Ad/A", ReportDate: &date, Spend: &spend, ROAS: &roas})
	}
	return analytics.Analyze("Ad/A", rows)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0", FormatAmount(0))
	assert.Equal(t, "12,345", FormatAmount(12345))
	assert.Equal(t, "1,234,567", FormatAmount(1234567))
	assert.Equal(t, "1,234.5", FormatAmount(1234.5))
}

func TestRowsRoundTripScoredValues(t *testing.T) {
	ad := sampleAd()
	rows := Rows(ad)
	require.Len(t, rows, len(ad.Days))

	for i, r := range rows {
		d := ad.Days[i]
		for _, pair := range []struct {
			got  string
			want float64
		}{{r.DailyROAS, d.DailyROAS}, {r.CumulativeROAS, d.CumulativeROAS}, {r.POCC, d.POCC}} {
			v, err := strconv.ParseFloat(pair.got, 64)
			require.NoError(t, err)
			assert.InDelta(t, pair.want, v, 0.005+1e-9)
			assert.Equal(t, 2, len(pair.got)-strings.Index(pair.got, ".")-1)
		}
		spend, err := strconv.ParseFloat(strings.ReplaceAll(r.CumulativeSpend, ",", ""), 64)
		require.NoError(t, err)
		assert.Equal(t, d.CumulativeSpend, spend)
	}
	assert.Equal(t, "5월 1일", rows[0].Day)
	assert.Equal(t, "12,345", rows[0].DailySpend)
	assert.Equal(t, "74,070", rows[5].CumulativeSpend)
	assert.Equal(t, "1.23", rows[5].DailyROAS)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, Rows(sampleAd())))

	body := strings.TrimPrefix(buf.String(), "\ufeff")
	recs, err := csv.NewReader(strings.NewReader(body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 7)
	assert.Equal(t, header, recs[0])
	assert.Equal(t, "5월 6일", recs[6][0])
	assert.Equal(t, "74,070", recs[6][5])
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "Ad_A_광고성과.csv", FileName("Ad/A"))
}

func TestSinkPushSigned(t *testing.T) {
	var gotSig string
	var got payload
	var raw []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Signature")
		raw, _ = io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	rows := Rows(sampleAd())
	n, err := NewSink(srv.Client(), srv.URL, "k").Push(context.Background(), "Ad/A", rows)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, "Ad/A", got.AdID)
	assert.Len(t, got.Rows, 6)
	assert.Equal(t, Sign("k", raw), gotSig)
}

func TestSinkErrors(t *testing.T) {
	_, err := NewSink(http.DefaultClient, "", "").Push(context.Background(), "A", []models.ExportRow{{}})
	assert.ErrorIs(t, err, ErrSinkNotConfigured)

	var nilSink *Sink
	_, err = nilSink.Push(context.Background(), "A", nil)
	assert.ErrorIs(t, err, ErrSinkNotConfigured)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	_, err = NewSink(srv.Client(), srv.URL, "k").Push(context.Background(), "A", []models.ExportRow{{}})
	assert.Error(t, err)
}

func TestFixed2(t *testing.T) {
	assert.Equal(t, "3.00", fixed2(3))
	assert.Equal(t, "-0.10", fixed2(-0.1))
	assert.Equal(t, 1.235, round3(1.23456))
}
