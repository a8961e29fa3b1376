package standingsservice

import (
	"context"
	"fmt"

	standingsdb "github.com/Black-And-White-Club/rally-league/app/modules/standings/infrastructure/repositories"
	"github.com/Black-And-White-Club/rally-league/pkg/results"
	"github.com/uptrace/bun"
	"github.com/xuri/excelize/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	standingsSheet = "Standings"
	ratingsSheet   = "Ratings"
)

// ExportSeason renders the season's standings and ratings as an XLSX
// workbook.
func (s *StandingsService) ExportSeason(ctx context.Context, seasonID string) (results.OperationResult[[]byte, error], error) {
	return withTelemetry(s, ctx, "ExportSeason", seasonID, func(ctx context.Context) (results.OperationResult[[]byte, error], error) {
		data, err := s.buildExport(ctx, nil, seasonID)
		if err != nil {
			return results.OperationResult[[]byte, error]{}, err
		}
		return results.SuccessResult[[]byte, error](data), nil
	})
}

func (s *StandingsService) buildExport(ctx context.Context, db bun.IDB, seasonID string) ([]byte, error) {
	standings, err := s.repo.ListSeasonStandings(ctx, db, seasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to load standings: %w", err)
	}
	ratings, err := s.repo.ListSeasonRatings(ctx, db, seasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ratings: %w", err)
	}
	return BuildSeasonWorkbook(standings, ratings)
}

// BuildSeasonWorkbook writes one sheet of division standings and one of
// player ratings.
func BuildSeasonWorkbook(standings []standingsdb.DivisionStanding, ratings []standingsdb.PlayerRating) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", standingsSheet); err != nil {
		return nil, fmt.Errorf("failed to name standings sheet: %w", err)
	}
	if _, err := f.NewSheet(ratingsSheet); err != nil {
		return nil, fmt.Errorf("failed to add ratings sheet: %w", err)
	}

	standingRows := [][]any{{
		"Division", "Rank", "Entity", "Played", "Wins", "Losses", "Points",
		"Sets Won", "Sets Lost", "Games Won", "Games Lost", "Locked",
	}}
	for _, st := range standings {
		standingRows = append(standingRows, []any{
			st.DivisionID, st.Rank, st.EntityID, st.MatchesPlayed, st.Wins, st.Losses, st.TotalPoints,
			st.SetsWon, st.SetsLost, st.GamesWon, st.GamesLost, st.IsLocked,
		})
	}
	if err := writeRows(f, standingsSheet, standingRows); err != nil {
		return nil, err
	}

	ratingRows := [][]any{{
		"Player", "Rating", "RD", "Matches", "Provisional", "Peak", "Peak Date", "Lowest",
	}}
	for _, r := range ratings {
		peakDate := ""
		if !r.PeakRatingDate.IsZero() {
			peakDate = r.PeakRatingDate.Format("2006-01-02")
		}
		ratingRows = append(ratingRows, []any{
			r.PlayerID, r.CurrentRating, r.RD, r.MatchesPlayed, r.IsProvisional, r.PeakRating, peakDate, r.LowestRating,
		})
	}
	if err := writeRows(f, ratingsSheet, ratingRows); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
