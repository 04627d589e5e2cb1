// pkg/platform/builtin.go

package platform

const (
	azuracastImage = "ghcr.io/azuracast/azuracast:stable"
	libretimeTag   = "4.2.0"
)

// AzuraCast runs the single-container AzuraCast image with its media
// directory on the ZFS dataset.
func AzuraCast() *Platform {
	return &Platform{
		Name:           "azuracast",
		Description:    "AzuraCast web radio suite",
		Cores:          4,
		MemoryMB:       8192,
		SwapMB:         2048,
		DiskGB:         32,
		QuotaGB:        500,
		Compression:    "lz4",
		Recordsize:     "128K",
		AppDir:         "/opt/azuracast",
		MediaPath:      "/var/azuracast",
		BackupDir:      "/var/azuracast/backups",
		DefaultService: "web",
		CredentialKeys: []string{"MYSQL_PASSWORD", "MYSQL_ROOT_PASSWORD"},
		Compose: func(c Credentials) *ComposeFile {
			return &ComposeFile{
				Services: map[string]Service{
					"web": {
						Image:         azuracastImage,
						ContainerName: "azuracast",
						Ports: []string{
							"80:80", "443:443", "2022:2022",
							"8000-8500:8000-8500",
						},
						EnvFile: []string{".env"},
						Environment: map[string]string{
							"MYSQL_PASSWORD":      c["MYSQL_PASSWORD"],
							"MYSQL_ROOT_PASSWORD": c["MYSQL_ROOT_PASSWORD"],
						},
						Volumes: []string{
							"/var/azuracast/stations:/var/azuracast/stations",
							"/var/azuracast/backups:/var/azuracast/backups",
							"db_data:/var/lib/mysql",
							"www_uploads:/var/azuracast/storage/uploads",
						},
						Restart: "unless-stopped",
						Ulimits: map[string]any{
							"nofile": map[string]int{"soft": 65536, "hard": 65536},
						},
					},
				},
				Volumes: map[string]any{
					"db_data":     map[string]any{},
					"www_uploads": map[string]any{},
				},
			}
		},
		InstallSteps: []string{
			"command -v docker >/dev/null || (apt-get update -qq && apt-get install -y -qq docker.io docker-compose-plugin)",
			"mkdir -p /var/azuracast/stations /var/azuracast/backups",
			"docker compose pull",
			"docker compose up -d",
		},
		UpdateSteps: []string{
			"docker compose pull",
			"docker compose up -d --remove-orphans",
			"docker image prune -f",
		},
		BackupCommand: "docker compose exec -T web azuracast_cli azuracast:backup %s",
		BackupExt:     ".zip",
	}
}

// LibreTime runs the multi-service LibreTime stack. Media lives under
// /srv/libretime on the dataset.
func LibreTime() *Platform {
	image := func(name string) string {
		return "ghcr.io/libretime/libretime-" + name + ":" + libretimeTag
	}
	return &Platform{
		Name:           "libretime",
		Description:    "LibreTime broadcast automation",
		Cores:          2,
		MemoryMB:       4096,
		SwapMB:         1024,
		DiskGB:         20,
		QuotaGB:        300,
		Compression:    "lz4",
		Recordsize:     "1M",
		AppDir:         "/opt/libretime",
		MediaPath:      "/srv/libretime",
		BackupDir:      "/srv/libretime/backups",
		DefaultService: "api",
		CredentialKeys: []string{"POSTGRES_PASSWORD", "RABBITMQ_DEFAULT_PASS", "LIBRETIME_API_KEY"},
		Compose: func(c Credentials) *ComposeFile {
			common := []string{".env"}
			media := "/srv/libretime:/srv/libretime"
			return &ComposeFile{
				Services: map[string]Service{
					"postgres": {
						Image:   "postgres:15",
						EnvFile: common,
						Environment: map[string]string{
							"POSTGRES_USER":     "libretime",
							"POSTGRES_PASSWORD": c["POSTGRES_PASSWORD"],
						},
						Volumes: []string{"postgres_data:/var/lib/postgresql/data"},
						Restart: "unless-stopped",
					},
					"rabbitmq": {
						Image:   "rabbitmq:3.13-alpine",
						EnvFile: common,
						Environment: map[string]string{
							"RABBITMQ_DEFAULT_VHOST": "/libretime",
							"RABBITMQ_DEFAULT_USER":  "libretime",
							"RABBITMQ_DEFAULT_PASS":  c["RABBITMQ_DEFAULT_PASS"],
						},
						Restart: "unless-stopped",
					},
					"api": {
						Image:     image("api"),
						EnvFile:   common,
						DependsOn: []string{"postgres", "rabbitmq"},
						Volumes:   []string{media},
						Restart:   "unless-stopped",
					},
					"legacy": {
						Image:     image("legacy"),
						EnvFile:   common,
						DependsOn: []string{"postgres", "rabbitmq"},
						Volumes:   []string{media},
						Restart:   "unless-stopped",
					},
					"playout": {
						Image:     image("playout"),
						EnvFile:   common,
						DependsOn: []string{"api"},
						Restart:   "unless-stopped",
					},
					"liquidsoap": {
						Image:     image("playout"),
						EnvFile:   common,
						Ports:     []string{"8001:8001", "8002:8002"},
						DependsOn: []string{"api"},
						Restart:   "unless-stopped",
					},
					"analyzer": {
						Image:     image("analyzer"),
						EnvFile:   common,
						DependsOn: []string{"rabbitmq"},
						Volumes:   []string{media},
						Restart:   "unless-stopped",
					},
					"worker": {
						Image:     image("worker"),
						EnvFile:   common,
						DependsOn: []string{"rabbitmq"},
						Restart:   "unless-stopped",
					},
					"nginx": {
						Image:     "nginx:1.27",
						Ports:     []string{"8080:8080"},
						DependsOn: []string{"legacy", "api"},
						Volumes:   []string{media + ":ro"},
						Restart:   "unless-stopped",
					},
				},
				Volumes: map[string]any{
					"postgres_data": map[string]any{},
				},
			}
		},
		InstallSteps: []string{
			"command -v docker >/dev/null || (apt-get update -qq && apt-get install -y -qq docker.io docker-compose-plugin)",
			"mkdir -p /srv/libretime/backups",
			"docker compose pull",
			"docker compose run --rm api libretime-api migrate",
			"docker compose up -d",
		},
		UpdateSteps: []string{
			"docker compose pull",
			"docker compose run --rm api libretime-api migrate",
			"docker compose up -d --remove-orphans",
		},
		BackupCommand: "docker compose exec -T postgres pg_dump -U libretime libretime > %s",
		BackupExt:     ".sql",
	}
}
