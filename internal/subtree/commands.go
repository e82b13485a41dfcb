package subtree

// Argument vectors handed to git. The remote name is the entry name, which add
// registers as a git remote pointing at the entry's remote URL.

func AddArgs(prefix, remoteName, branch string) []string {
	return []string{"subtree", "add", "--prefix=" + prefix, remoteName, branch, "--squash"}
}

func PullArgs(prefix, remoteName, branch string) []string {
	return []string{"subtree", "pull", "--prefix=" + prefix, remoteName, branch, "--squash"}
}

func SplitArgs(prefix, splitBranch string, rejoin bool) []string {
	args := []string{"subtree", "split", "--prefix=" + prefix, "--branch=" + splitBranch}
	if rejoin {
		args = append(args, "--rejoin")
	}
	return args
}

func PushArgs(remoteName, localBranch, branch string) []string {
	return []string{"push", remoteName, localBranch + ":" + branch}
}
