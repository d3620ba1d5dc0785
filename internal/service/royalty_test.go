package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"backoffice/internal/model"
	repoMocks "backoffice/internal/repository/mocks"
	"backoffice/internal/storage"
	storeMocks "backoffice/internal/storage/mocks"
)

const royaltyCSV = "Song Title,Platform,Country,Revenue,ISRC\n" +
	"Luz,Spotify,CO,12.5,USRC1\n" +
	"Sol,Apple Music,MX,abc,\n" +
	"Mar,Deezer,AR,0.75,\n"

func TestRoyaltyService_Upload(t *testing.T) {
	ctx := context.Background()
	artist := &model.Artist{ID: "a1", Name: "Rosa"}
	isKey := mock.MatchedBy(func(k string) bool {
		return strings.HasPrefix(k, "royalty-reports/") && strings.HasSuffix(k, ".csv")
	})

	tests := []struct {
		name       string
		in         ReportUpload
		setupMocks func(st *storeMocks.MockStorage, reports *repoMocks.MockRoyaltyReportRepository, artists *repoMocks.MockArtistRepository)
		wantErr    error
		wantCode   string
		check      func(t *testing.T, res *ReportUploadResult)
	}{
		{
			name: "royalty report stored with rows",
			in:   ReportUpload{UserID: "u1", FileName: "q1 report.csv", Body: strings.NewReader(royaltyCSV)},
			setupMocks: func(st *storeMocks.MockStorage, reports *repoMocks.MockRoyaltyReportRepository, artists *repoMocks.MockArtistRepository) {
				artists.On("FindByUserID", ctx, "u1").Return(artist, nil)
				st.On("Put", ctx, isKey, mock.Anything, mock.MatchedBy(func(o storage.PutObjectOptions) bool {
					return o.ContentType == "text/csv" && o.Metadata["original-filename"] == "q1 report.csv"
				})).Return(storage.ObjectInfo{Key: "royalty-reports/x.csv"}, nil)
				reports.On("CreateWithRows", ctx, mock.MatchedBy(func(r *model.RoyaltyReport) bool {
					return r.Kind == model.ReportKindRoyalty && r.RowCount == 2 && *r.ArtistID == "a1" && r.StorageKey == "royalty-reports/x.csv"
				}), mock.MatchedBy(func(rows []model.RoyaltyRow) bool {
					return len(rows) == 2 && rows[0].ArtistID == "a1"
				}), mock.Anything).Return(&model.RoyaltyReport{ID: "r1", Kind: model.ReportKindRoyalty}, nil)
			},
			check: func(t *testing.T, res *ReportUploadResult) {
				assert.Equal(t, "r1", res.Report.ID)
				assert.Equal(t, 2, res.Rows)
				require.Len(t, res.RowErrors, 1)
				assert.Equal(t, 3, res.RowErrors[0].Line)
			},
		},
		{
			name: "explicit artist id",
			in:   ReportUpload{UserID: "u1", ArtistID: "a9", FileName: "aud.tsv", Body: strings.NewReader("date\tlisteners\tstreams\tfollowers\n2024-01-01\t10\t20\t30\n")},
			setupMocks: func(st *storeMocks.MockStorage, reports *repoMocks.MockRoyaltyReportRepository, artists *repoMocks.MockArtistRepository) {
				artists.On("FindByID", ctx, "a9").Return(&model.Artist{ID: "a9"}, nil)
				st.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return(storage.ObjectInfo{Key: "k"}, nil)
				reports.On("CreateWithRows", ctx, mock.Anything, mock.Anything, mock.MatchedBy(func(rows []model.AudienceRow) bool {
					return len(rows) == 1 && rows[0].Streams == 20
				})).Return(&model.RoyaltyReport{ID: "r2", Kind: model.ReportKindAudience}, nil)
			},
			check: func(t *testing.T, res *ReportUploadResult) {
				assert.Equal(t, model.ReportKindAudience, res.Kind)
				assert.NotNil(t, res.RowErrors)
				assert.Empty(t, res.RowErrors)
			},
		},
		{
			name: "unsupported extension",
			in:   ReportUpload{UserID: "u1", FileName: "report.pdf", Body: strings.NewReader("x")},
			setupMocks: func(*storeMocks.MockStorage, *repoMocks.MockRoyaltyReportRepository, *repoMocks.MockArtistRepository) {
			},
			wantErr: ErrValidation,
		},
		{
			name: "no artist for uploader",
			in:   ReportUpload{UserID: "u2", FileName: "r.csv", Body: strings.NewReader(royaltyCSV)},
			setupMocks: func(st *storeMocks.MockStorage, reports *repoMocks.MockRoyaltyReportRepository, artists *repoMocks.MockArtistRepository) {
				artists.On("FindByUserID", ctx, "u2").Return(nil, sql.ErrNoRows)
			},
			wantErr:  ErrUnprocessable,
			wantCode: "ARTIST_NOT_FOUND",
		},
		{
			name: "unknown format is never stored",
			in:   ReportUpload{UserID: "u1", FileName: "r.csv", Body: strings.NewReader("foo,bar\n1,2\n")},
			setupMocks: func(st *storeMocks.MockStorage, reports *repoMocks.MockRoyaltyReportRepository, artists *repoMocks.MockArtistRepository) {
				artists.On("FindByUserID", ctx, "u1").Return(artist, nil)
			},
			wantErr:  ErrValidation,
			wantCode: "UNKNOWN_REPORT_FORMAT",
		},
		{
			name: "db failure rolls back the object",
			in:   ReportUpload{UserID: "u1", FileName: "r.csv", Body: strings.NewReader(royaltyCSV)},
			setupMocks: func(st *storeMocks.MockStorage, reports *repoMocks.MockRoyaltyReportRepository, artists *repoMocks.MockArtistRepository) {
				artists.On("FindByUserID", ctx, "u1").Return(artist, nil)
				st.On("Put", ctx, isKey, mock.Anything, mock.Anything).Return(storage.ObjectInfo{Key: "k"}, nil)
				reports.On("CreateWithRows", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("deadlock"))
				st.On("Delete", ctx, isKey).Return(nil)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := new(storeMocks.MockStorage)
			reports := new(repoMocks.MockRoyaltyReportRepository)
			artists := new(repoMocks.MockArtistRepository)
			tt.setupMocks(st, reports, artists)
			svc := NewRoyaltyService(st, reports, artists, nil, nil)

			res, err := svc.Upload(ctx, tt.in)
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
				if tt.wantCode != "" {
					var de *DetailError
					require.ErrorAs(t, err, &de)
					assert.Equal(t, tt.wantCode, de.Code)
				}
				st.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			case tt.check == nil:
				require.Error(t, err)
				assert.Contains(t, err.Error(), "db save failed")
				st.AssertExpectations(t)
			default:
				require.NoError(t, err)
				tt.check(t, res)
				st.AssertExpectations(t)
				reports.AssertExpectations(t)
			}
		})
	}
}

func TestRoyaltyService_UploadRollbackFailure(t *testing.T) {
	ctx := context.Background()
	st := new(storeMocks.MockStorage)
	reports := new(repoMocks.MockRoyaltyReportRepository)
	artists := new(repoMocks.MockArtistRepository)
	artists.On("FindByUserID", ctx, "u1").Return(&model.Artist{ID: "a1"}, nil)
	st.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return(storage.ObjectInfo{Key: "k"}, nil)
	reports.On("CreateWithRows", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("deadlock"))
	st.On("Delete", ctx, mock.Anything).Return(errors.New("bucket gone"))

	_, err := NewRoyaltyService(st, reports, artists, nil, nil).Upload(ctx, ReportUpload{UserID: "u1", FileName: "r.csv", Body: strings.NewReader(royaltyCSV)})
	require.Error(t, err)
	assert.Equal(t, "db save failed: deadlock; rollback delete failed: bucket gone", err.Error())
}

func TestRoyaltyService_Get(t *testing.T) {
	ctx := context.Background()
	reports := new(repoMocks.MockRoyaltyReportRepository)
	reports.On("FindByID", ctx, "r1").Return(&model.RoyaltyReport{ID: "r1", UserID: "u1"}, nil)
	reports.On("FindByID", ctx, "r404").Return(nil, sql.ErrNoRows)
	svc := NewRoyaltyService(nil, reports, nil, nil, nil)

	r, err := svc.Get(ctx, "u1", "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", r.ID)

	_, err = svc.Get(ctx, "u2", "r1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Get(ctx, "u1", "r404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRoyaltyService_UploadMetrics(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)

	st := new(storeMocks.MockStorage)
	reports := new(repoMocks.MockRoyaltyReportRepository)
	artists := new(repoMocks.MockArtistRepository)
	artists.On("FindByUserID", ctx, "u1").Return(&model.Artist{ID: "a1"}, nil)
	st.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return(storage.ObjectInfo{Key: "k"}, nil)
	reports.On("CreateWithRows", ctx, mock.Anything, mock.Anything, mock.Anything).Return(&model.RoyaltyReport{ID: "r1"}, nil)

	_, err = NewRoyaltyService(st, reports, artists, nil, metrics).Upload(ctx, ReportUpload{UserID: "u1", FileName: "r.csv", Body: strings.NewReader(royaltyCSV)})
	require.NoError(t, err)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.reportRows.WithLabelValues(model.ReportKindRoyalty)))
}
