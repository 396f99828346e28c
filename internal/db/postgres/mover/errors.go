// Copyright 2025 Greenmask
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mover

import "errors"

var (
	// ErrTableNotFound - the table does not exist in the source schema
	ErrTableNotFound = errors.New("table not found")
	// ErrSchemaMissing - the destination schema does not exist and creation was not requested
	ErrSchemaMissing = errors.New("schema does not exist")
	// ErrTableAlreadyExists - the destination schema already holds a table with the same name
	ErrTableAlreadyExists = errors.New("table already exists in destination schema")
	ErrSameSchema         = errors.New("source and destination schemas are the same")
	// ErrConstraintConflict - a foreign key could not be dropped or recreated
	ErrConstraintConflict = errors.New("constraint conflict")
	// ErrConnectionFailure - the session or transaction was lost in the middle of the operation
	ErrConnectionFailure = errors.New("connection failure")
)
