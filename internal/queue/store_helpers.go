package queue

import (
	"database/sql"
	"errors"
	"time"

	"scribeq/internal/classify"
)

const itemColumns = "id, source_path, display_name, kind, status, detected_lang_code, detected_lang_name, source_language, progress, progress_message, error_message, output_path, credits_used, position, created_at, updated_at"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id              int64
		sourcePath      string
		displayName     sql.NullString
		kindStr         string
		statusStr       string
		detectedCode    sql.NullString
		detectedName    sql.NullString
		sourceLanguage  sql.NullString
		progress        sql.NullFloat64
		progressMessage sql.NullString
		errorMessage    sql.NullString
		outputPath      sql.NullString
		creditsUsed     sql.NullFloat64
		position        int64
		createdRaw      sql.NullString
		updatedRaw      sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&sourcePath,
		&displayName,
		&kindStr,
		&statusStr,
		&detectedCode,
		&detectedName,
		&sourceLanguage,
		&progress,
		&progressMessage,
		&errorMessage,
		&outputPath,
		&creditsUsed,
		&position,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:               id,
		SourcePath:       sourcePath,
		DisplayName:      displayName.String,
		Kind:             classify.Kind(kindStr),
		Status:           Status(statusStr),
		DetectedLangCode: detectedCode.String,
		DetectedLangName: detectedName.String,
		SourceLanguage:   sourceLanguage.String,
		Progress:         progress.Float64,
		ProgressMessage:  progressMessage.String,
		ErrorMessage:     errorMessage.String,
		OutputPath:       outputPath.String,
		CreditsUsed:      creditsUsed.Float64,
		Position:         position,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
