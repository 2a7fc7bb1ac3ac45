package prompts

import (
	"fmt"
	"strings"
)

// Goal is the cloud whose CLI the assistant drives.
type Goal string

const (
	GoalGCP   Goal = "gcp"
	GoalAWS   Goal = "aws"
	GoalAzure Goal = "azure"
)

func Goals() []Goal { return []Goal{GoalGCP, GoalAWS, GoalAzure} }

func ParseGoal(s string) (Goal, error) {
	g := Goal(strings.ToLower(strings.TrimSpace(s)))
	switch g {
	case GoalGCP, GoalAWS, GoalAzure:
		return g, nil
	case "":
		return "", fmt.Errorf("goal is not specified (want one of gcp, aws, azure)")
	default:
		return "", fmt.Errorf("unknown goal %q (want one of gcp, aws, azure)", s)
	}
}

// CLIs lists the executables a command for g may start with.
func (g Goal) CLIs() []string {
	switch g {
	case GoalGCP:
		return []string{"gcloud", "bq", "gsutil"}
	case GoalAWS:
		return []string{"aws"}
	case GoalAzure:
		return []string{"az"}
	default:
		return nil
	}
}

func (g Goal) toolsPhrase() string {
	switch g {
	case GoalAWS:
		return "AWS CLI aws"
	case GoalAzure:
		return "Azure CLI az"
	default:
		return "Google Cloud CLI tools gcloud, bq, gsutil"
	}
}
