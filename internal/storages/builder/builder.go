// Copyright 2023 Greenmask
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

package builder

import (
	"context"
	"fmt"

	"github.com/greenmaskio/schemashift/internal/domains"
	"github.com/greenmaskio/schemashift/internal/storages"
	"github.com/greenmaskio/schemashift/internal/storages/directory"
	"github.com/greenmaskio/schemashift/internal/storages/s3"
)

func GetStorage(ctx context.Context, stCfg *domains.StorageConfig, logCfg *domains.LogConfig) (
	storages.Storager, error,
) {
	switch stCfg.Type {
	case domains.StorageTypeDirectory, "":
		cfg := stCfg.Directory
		if cfg == nil {
			cfg = directory.NewConfig()
		}
		return directory.NewStorage(cfg)
	case domains.StorageTypeS3:
		cfg := stCfg.S3
		if cfg == nil {
			cfg = s3.NewConfig()
		}
		return s3.NewStorage(ctx, cfg, logCfg.Level)
	}
	return nil, fmt.Errorf("unknown storage type \"%s\"", stCfg.Type)
}
