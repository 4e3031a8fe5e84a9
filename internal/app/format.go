package app

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"lp-funding-alert/internal/estimate"
)

const timestampLayout = "2006-01-02 15:04:05"

func formatAlert(now time.Time, res estimate.Result) string {
	lines := []string{
		fmt.Sprintf("⏱ <b>%s</b>", now.Format(timestampLayout)),
		"코인 : " + html.EscapeString(res.Symbol),
		"현물가격 : " + res.SpotPrice.String(),
		"선물가격 : " + res.FuturesPrice.String(),
		"현물-선물 갭 : " + res.SpotFuturesGap.StringFixed(6),
		"펀딩비계산주기 : " + formatFloat(res.FundingIntervalHours) + "시간",
		"펀딩비율 : " + formatFloat(res.FundingRatePercent) + "% (" + sourceLabel(res.FundingSource) + ")",
		"APR : " + formatFloat(res.APR),
		"일 APR (%) : " + formatFloat(res.DailyAPRPercent),
		"하루 펀딩비 (%) : " + formatFloat(res.DailyFundingFeePercent),
		"기대수익(일%) : " + formatFloat(res.ExpectedDailyReturnPercent),
	}
	return strings.Join(lines, "\n")
}

func sourceLabel(source estimate.FundingSource) string {
	if source == estimate.SourceLive {
		return "실시간"
	}
	return "직전 정산"
}

func formatFloat(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
