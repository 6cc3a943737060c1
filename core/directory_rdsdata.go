package core

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
)

// RDSDataAPI is the subset of the RDS Data API client used by RDSDataDirectory.
type RDSDataAPI interface {
	ExecuteStatement(ctx context.Context, params *rdsdata.ExecuteStatementInput, optFns ...func(*rdsdata.Options)) (*rdsdata.ExecuteStatementOutput, error)
}

// RDSDataDirectory reads employees through the Aurora Data API.
type RDSDataDirectory struct {
	api         RDSDataAPI
	resourceARN string
	secretARN   string
	database    string
}

func NewRDSDataDirectory(api RDSDataAPI, cfg Config) *RDSDataDirectory {
	return &RDSDataDirectory{
		api:         api,
		resourceARN: cfg.DBResourceARN,
		secretARN:   cfg.DBSecretARN,
		database:    cfg.DBName,
	}
}

func (d *RDSDataDirectory) FindEmployee(ctx context.Context, username string) (EmployeeRecord, error) {
	out, err := d.api.ExecuteStatement(ctx, &rdsdata.ExecuteStatementInput{
		ResourceArn:           aws.String(d.resourceARN),
		SecretArn:             aws.String(d.secretARN),
		Database:              aws.String(d.database),
		Sql:                   aws.String(fmt.Sprintf(employeeQuery, ":u")),
		IncludeResultMetadata: true,
		Parameters: []types.SqlParameter{
			{Name: aws.String("u"), Value: &types.FieldMemberStringValue{Value: username}},
		},
	})
	if err != nil {
		return EmployeeRecord{}, fmt.Errorf("execute statement: %w", err)
	}
	if len(out.Records) == 0 {
		return EmployeeRecord{}, ErrUnknownUser
	}

	names := make([]string, len(out.ColumnMetadata))
	for i, c := range out.ColumnMetadata {
		names[i] = aws.ToString(c.Name)
	}
	cells := make([]any, len(out.Records[0]))
	for i, f := range out.Records[0] {
		cells[i] = fieldValue(f)
	}
	cols, err := ZipColumns(names, cells)
	if err != nil {
		return EmployeeRecord{}, err
	}
	return EmployeeFromRow(cols)
}

// fieldValue unwraps a Data API field union into a plain Go value.
func fieldValue(f types.Field) any {
	switch v := f.(type) {
	case *types.FieldMemberStringValue:
		return v.Value
	case *types.FieldMemberLongValue:
		return v.Value
	case *types.FieldMemberDoubleValue:
		return v.Value
	case *types.FieldMemberBooleanValue:
		return v.Value
	case *types.FieldMemberBlobValue:
		return v.Value
	case *types.FieldMemberIsNull:
		return nil
	default:
		return nil
	}
}
